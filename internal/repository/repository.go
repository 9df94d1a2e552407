package repository

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// StartOfMonth verilen anın ait olduğu ayın başlangıcını verir
func StartOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// PreviousMonthStart bir önceki takvim ayının başlangıcını verir (yıl devri dahil)
func PreviousMonthStart(now time.Time) time.Time {
	monthStart := StartOfMonth(now)
	if monthStart.Month() == time.January {
		return time.Date(monthStart.Year()-1, time.December, 1, 0, 0, 0, 0, monthStart.Location())
	}
	return time.Date(monthStart.Year(), monthStart.Month()-1, 1, 0, 0, 0, 0, monthStart.Location())
}

func containsPattern(value string) string {
	return "%" + strings.ToLower(value) + "%"
}

// yearExpr / monthExpr / hourExpr / dateExpr dialect'e göre SQL ifadesi üretir.
// Prod postgres, testler sqlite üzerinde çalışır.
func yearExpr(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "sqlite" {
		return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", column)
	}
	return fmt.Sprintf("CAST(EXTRACT(YEAR FROM %s) AS INTEGER)", column)
}

func monthExpr(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "sqlite" {
		return fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", column)
	}
	return fmt.Sprintf("CAST(EXTRACT(MONTH FROM %s) AS INTEGER)", column)
}

func hourExpr(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "sqlite" {
		return fmt.Sprintf("CAST(strftime('%%H', %s) AS INTEGER)", column)
	}
	return fmt.Sprintf("CAST(EXTRACT(HOUR FROM %s) AS INTEGER)", column)
}

func dateExpr(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "sqlite" {
		return fmt.Sprintf("DATE(%s)", column)
	}
	return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", column)
}
