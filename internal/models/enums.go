package models

// Option 下拉选项
type Option struct {
	Label string      `json:"label"`
	Value interface{} `json:"value"`
	Color string      `json:"color,omitempty"`
	Icon  string      `json:"icon,omitempty"`
}

type enumMeta struct {
	label string
	color string
	icon  string
}

// ========== 状态 ==========

// Status 代理/租户/用户/应用配置通用状态
type Status int

const (
	StatusNormal   Status = 1 // 正常
	StatusDisabled Status = 2 // 停用
	StatusPending  Status = 3 // 待审核
)

var statusOrder = []Status{StatusNormal, StatusDisabled, StatusPending}

var statusMeta = map[Status]enumMeta{
	StatusNormal:   {label: "正常", color: "success"},
	StatusDisabled: {label: "停用", color: "danger"},
	StatusPending:  {label: "待审核", color: "warning"},
}

// Valid 是否为已定义的状态
func (s Status) Valid() bool {
	_, ok := statusMeta[s]
	return ok
}

// Label 显示名称
func (s Status) Label() string {
	return statusMeta[s].label
}

// Color 前端颜色标签
func (s Status) Color() string {
	return statusMeta[s].color
}

// StatusOptions 状态选项列表
func StatusOptions() []Option {
	options := make([]Option, 0, len(statusOrder))
	for _, s := range statusOrder {
		options = append(options, Option{Label: s.Label(), Value: int(s), Color: s.Color()})
	}
	return options
}

// ========== 用户类型 ==========

// UserType 代理用户/租户用户类型
type UserType int

const (
	UserTypeNormal UserType = 1 // 普通用户
	UserTypeAdmin  UserType = 2 // 管理员
)

var userTypeOrder = []UserType{UserTypeNormal, UserTypeAdmin}

var userTypeMeta = map[UserType]enumMeta{
	UserTypeNormal: {label: "普通用户", color: "primary"},
	UserTypeAdmin:  {label: "管理员", color: "warning"},
}

func (t UserType) Valid() bool {
	_, ok := userTypeMeta[t]
	return ok
}

func (t UserType) Label() string {
	return userTypeMeta[t].label
}

func (t UserType) Color() string {
	return userTypeMeta[t].color
}

// UserTypeOptions 用户类型选项列表
func UserTypeOptions() []Option {
	options := make([]Option, 0, len(userTypeOrder))
	for _, t := range userTypeOrder {
		options = append(options, Option{Label: t.Label(), Value: int(t), Color: t.Color()})
	}
	return options
}

// ========== 应用类型 ==========

// AppType AI应用类型
type AppType string

const (
	AppTypeChat       AppType = "chat"       // 聊天应用
	AppTypeImage      AppType = "image"      // 图像生成
	AppTypeAudio      AppType = "audio"      // 音频处理
	AppTypeVideo      AppType = "video"      // 视频处理
	AppTypeEmbedding  AppType = "embedding"  // 向量嵌入
	AppTypeCompletion AppType = "completion" // 文本补全
)

var appTypeOrder = []AppType{
	AppTypeChat, AppTypeImage, AppTypeAudio, AppTypeVideo, AppTypeEmbedding, AppTypeCompletion,
}

var appTypeMeta = map[AppType]enumMeta{
	AppTypeChat:       {label: "聊天应用", icon: "i-material-symbols:chat"},
	AppTypeImage:      {label: "图像生成", icon: "i-material-symbols:image"},
	AppTypeAudio:      {label: "音频处理", icon: "i-material-symbols:audio-file"},
	AppTypeVideo:      {label: "视频处理", icon: "i-material-symbols:video-file"},
	AppTypeEmbedding:  {label: "向量嵌入", icon: "i-material-symbols:vector"},
	AppTypeCompletion: {label: "文本补全", icon: "i-material-symbols:text-fields"},
}

func (t AppType) Valid() bool {
	_, ok := appTypeMeta[t]
	return ok
}

func (t AppType) Label() string {
	return appTypeMeta[t].label
}

func (t AppType) Icon() string {
	return appTypeMeta[t].icon
}

// AppTypeOptions 应用类型选项列表
func AppTypeOptions() []Option {
	options := make([]Option, 0, len(appTypeOrder))
	for _, t := range appTypeOrder {
		options = append(options, Option{Label: t.Label(), Value: string(t), Icon: t.Icon()})
	}
	return options
}
