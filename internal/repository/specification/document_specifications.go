package specification

import "gorm.io/gorm"

type BySource struct {
	Source string
}

func (s BySource) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source = ?", s.Source)
}

// ContentContains is a case-insensitive substring match on chunk content.
type ContentContains struct {
	Query string
}

func (s ContentContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content ILIKE ?", "%"+s.Query+"%")
}
