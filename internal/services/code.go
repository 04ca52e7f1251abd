package services

import (
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"time"

	"saasadmin/pkg/errors"

	"gorm.io/gorm"
)

const (
	agentCodePrefix  = "A"
	tenantCodePrefix = "T"
	maxCodeAttempts  = 10
)

// CodeGenerator 生成编码：前缀 + YYYYMMDD + 4位随机数
type CodeGenerator func(prefix string, now time.Time) string

// DefaultCodeGenerator 默认编码生成器
func DefaultCodeGenerator(prefix string, now time.Time) string {
	return fmt.Sprintf("%s%s%04d", prefix, now.Format("20060102"), rand.IntN(9999)+1)
}

// createWithCode 在事务内写入带唯一编码的记录。
// 指定编码时冲突直接返回 ErrCodeExists；未指定时生成编码，预检查后在保存点内插入，
// 唯一约束冲突则回滚保存点并重新生成。
func createWithCode(tx *gorm.DB, code string, gen func() string,
	exists func(code string) (bool, error), create func(tx *gorm.DB, code string) error) error {
	if code != "" {
		taken, err := exists(code)
		if err != nil {
			return err
		}
		if taken {
			return errors.ErrCodeExists
		}
		if err := create(tx, code); err != nil {
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.ErrCodeExists
			}
			return err
		}
		return nil
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		candidate := gen()
		taken, err := exists(candidate)
		if err != nil {
			return err
		}
		if taken {
			continue
		}
		err = tx.Transaction(func(sp *gorm.DB) error {
			return create(sp, candidate)
		})
		if err == nil {
			return nil
		}
		if !stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return fmt.Errorf("生成唯一编码失败: 已重试%d次", maxCodeAttempts)
}
