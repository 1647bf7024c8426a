package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate 在事务内给查询追加行锁。
// SQLite（测试库）不支持 SELECT ... FOR UPDATE 语法，跳过；
// 扣减本身用带条件的 UPDATE 保证计数不为负。
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
