// Package hierarchy 维护代理树：挂载、移动、层级与路径级联，以及祖先/后代遍历。
//
// 树以 id 索引的 arena 保存，节点只记录 parent_id，不持有父子对象引用。
// 路径格式：顶级代理为空串，其余为祖先 id 自顶向下以逗号连接，如 "1,5,9"。
package hierarchy

import (
	"iter"
	"slices"
	"strconv"
	"strings"
	"time"

	"saasadmin/internal/models"
	"saasadmin/pkg/errors"
)

// DefaultMaxDepth 代理树默认最大层级
const DefaultMaxDepth = 5

// Tree 代理树 arena
type Tree struct {
	maxDepth int
	nodes    map[uint]*models.Agent
	children map[uint][]uint
}

// New 创建代理树，maxDepth <= 0 时使用 DefaultMaxDepth
func New(maxDepth int, agents ...*models.Agent) *Tree {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	t := &Tree{
		maxDepth: maxDepth,
		nodes:    make(map[uint]*models.Agent, len(agents)),
		children: make(map[uint][]uint),
	}
	t.Add(agents...)
	return t
}

// MaxDepth 最大层级
func (t *Tree) MaxDepth() int {
	return t.maxDepth
}

// Add 将代理加入 arena，已存在的同 id 节点会被替换
func (t *Tree) Add(agents ...*models.Agent) {
	for _, a := range agents {
		if old, ok := t.nodes[a.ID]; ok {
			t.unlink(old)
		}
		t.nodes[a.ID] = a
		t.link(a)
	}
}

// Get 按 id 取节点
func (t *Tree) Get(id uint) (*models.Agent, bool) {
	a, ok := t.nodes[id]
	return a, ok
}

// Len 节点数量
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) link(a *models.Agent) {
	if a.ParentID != nil {
		t.children[*a.ParentID] = append(t.children[*a.ParentID], a.ID)
	}
}

func (t *Tree) unlink(a *models.Agent) {
	if a.ParentID == nil {
		return
	}
	pid := *a.ParentID
	t.children[pid] = slices.DeleteFunc(t.children[pid], func(id uint) bool { return id == a.ID })
}

// Children 直接下级，按创建时间升序
func (t *Tree) Children(id uint) []*models.Agent {
	ids := t.children[id]
	result := make([]*models.Agent, 0, len(ids))
	for _, cid := range ids {
		result = append(result, t.nodes[cid])
	}
	sortByCreated(result)
	return result
}

// Roots arena 中的顶级代理，按创建时间升序
func (t *Tree) Roots() []*models.Agent {
	var result []*models.Agent
	for _, a := range t.nodes {
		if a.ParentID == nil {
			result = append(result, a)
		}
	}
	sortByCreated(result)
	return result
}

func sortByCreated(agents []*models.Agent) {
	slices.SortFunc(agents, func(a, b *models.Agent) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return int(a.ID) - int(b.ID)
	})
}

// Descendants 惰性遍历整棵子树（先序，父节点先于子节点）
func (t *Tree) Descendants(id uint) iter.Seq[*models.Agent] {
	return func(yield func(*models.Agent) bool) {
		visited := map[uint]bool{id: true}
		t.walk(id, visited, yield)
	}
}

func (t *Tree) walk(id uint, visited map[uint]bool, yield func(*models.Agent) bool) bool {
	for _, child := range t.Children(id) {
		if visited[child.ID] {
			continue
		}
		visited[child.ID] = true
		if !yield(child) || !t.walk(child.ID, visited, yield) {
			return false
		}
	}
	return true
}

// Ancestors 惰性遍历祖先链，由近及远，遇到 arena 外的上级即停止
func (t *Tree) Ancestors(id uint) iter.Seq[*models.Agent] {
	return func(yield func(*models.Agent) bool) {
		node, ok := t.nodes[id]
		if !ok {
			return
		}
		for steps := 0; node.ParentID != nil && steps < len(t.nodes); steps++ {
			parent, ok := t.nodes[*node.ParentID]
			if !ok || !yield(parent) {
				return
			}
			node = parent
		}
	}
}

// IsDescendant candidateID 是否位于 ancestorID 的子树中
func (t *Tree) IsDescendant(ancestorID, candidateID uint) bool {
	for a := range t.Ancestors(candidateID) {
		if a.ID == ancestorID {
			return true
		}
	}
	if c, ok := t.nodes[candidateID]; ok {
		return slices.Contains(PathIDs(c.Path), ancestorID)
	}
	return false
}

// Attach 挂载到 parentID 下（nil 为顶级），设置 parent_id、level、path
func (t *Tree) Attach(agent *models.Agent, parentID *uint, now time.Time) error {
	if parentID == nil {
		t.place(agent, nil)
		return nil
	}
	parent, ok := t.nodes[*parentID]
	if !ok {
		return errors.ErrParentNotFound
	}
	if !parent.IsAvailable(now) {
		return errors.ErrParentUnavailable
	}
	if parent.Level >= t.maxDepth {
		return errors.ErrDepthExceeded
	}
	t.place(agent, parent)
	return nil
}

func (t *Tree) place(agent *models.Agent, parent *models.Agent) {
	if old, ok := t.nodes[agent.ID]; ok && agent.ID != 0 {
		t.unlink(old)
	}
	if parent == nil {
		agent.ParentID = nil
		agent.Level = 1
		agent.Path = ""
	} else {
		pid := parent.ID
		agent.ParentID = &pid
		agent.Level = parent.Level + 1
		agent.Path = ChildPath(parent)
	}
	if agent.ID != 0 {
		t.nodes[agent.ID] = agent
		t.link(agent)
	}
}

// Reparent 移动代理到 newParentID 下并级联更新子树，返回层级/路径被改写的后代
func (t *Tree) Reparent(agent *models.Agent, newParentID *uint, now time.Time) ([]*models.Agent, error) {
	if newParentID != nil {
		if *newParentID == agent.ID {
			return nil, errors.ErrSelfReference
		}
		if t.IsDescendant(agent.ID, *newParentID) {
			return nil, errors.ErrCycleDetected
		}
	}

	var parent *models.Agent
	if newParentID != nil {
		var ok bool
		if parent, ok = t.nodes[*newParentID]; !ok {
			return nil, errors.ErrParentNotFound
		}
		if !parent.IsAvailable(now) {
			return nil, errors.ErrParentUnavailable
		}
		if parent.Level+1+t.subtreeHeight(agent) > t.maxDepth {
			return nil, errors.ErrDepthExceeded
		}
	}

	t.place(agent, parent)
	return t.Cascade(agent.ID), nil
}

// subtreeHeight 子树相对该节点的最大深度，叶子为0
func (t *Tree) subtreeHeight(agent *models.Agent) int {
	height := 0
	for d := range t.Descendants(agent.ID) {
		if h := d.Level - agent.Level; h > height {
			height = h
		}
	}
	return height
}

// Cascade 先序重算 id 所有后代的 level 与 path，返回发生变化的节点
func (t *Tree) Cascade(id uint) []*models.Agent {
	var changed []*models.Agent
	for d := range t.Descendants(id) {
		parent := t.nodes[*d.ParentID]
		level, path := parent.Level+1, ChildPath(parent)
		if d.Level != level || d.Path != path {
			d.Level, d.Path = level, path
			changed = append(changed, d)
		}
	}
	return changed
}

// BuildTree 构建以 parentID 为根的嵌套树（nil 为全部顶级代理）
func (t *Tree) BuildTree(parentID *uint) []*models.AgentTreeNode {
	var top []*models.Agent
	if parentID == nil {
		top = t.Roots()
	} else {
		top = t.Children(*parentID)
	}
	nodes := make([]*models.AgentTreeNode, 0, len(top))
	for _, a := range top {
		nodes = append(nodes, t.buildNode(a))
	}
	return nodes
}

func (t *Tree) buildNode(a *models.Agent) *models.AgentTreeNode {
	node := &models.AgentTreeNode{
		ID:       a.ID,
		Name:     a.Name,
		Code:     a.Code,
		Level:    a.Level,
		Status:   a.Status,
		Children: []*models.AgentTreeNode{},
	}
	for _, child := range t.Children(a.ID) {
		node.Children = append(node.Children, t.buildNode(child))
	}
	return node
}

// ChildPath 子节点的路径：父路径追加父 id
func ChildPath(parent *models.Agent) string {
	id := strconv.FormatUint(uint64(parent.ID), 10)
	if parent.Path == "" {
		return id
	}
	return parent.Path + "," + id
}

// PathIDs 解析路径中的祖先 id，自顶向下
func PathIDs(path string) []uint {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}
