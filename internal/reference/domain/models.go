package domain

import "time"

type Country struct {
	Code      string    `json:"code" gorm:"type:char(2);primaryKey;column:code"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at,omitempty" gorm:"not null"`
}

func (Country) TableName() string { return "countries" }

type Currency struct {
	Code      string    `json:"code" gorm:"type:char(3);primaryKey;column:code"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	Symbol    *string   `json:"symbol,omitempty" gorm:"type:text"`
	MinorUnit int16     `json:"minor_unit" gorm:"type:smallint;not null"`
	IsActive  bool      `json:"is_active,omitempty" gorm:"not null"`
	CreatedAt time.Time `json:"created_at,omitempty" gorm:"not null"`
}

func (Currency) TableName() string { return "currencies" }
