// Package gorm provides the GORM-backed store for nutrition results
package gorm

import (
	"time"

	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/ports/outbound"
)

// NutritionEstimateModel represents a stored per-serving result. Nutrient
// columns are nullable: NULL means unknown, never zero.
type NutritionEstimateModel struct {
	Key           string   `gorm:"column:cache_key;type:varchar(96);primaryKey"`
	Source        string   `gorm:"type:varchar(32);index"`
	Calories      *float64 `gorm:"column:calories"`
	ProteinG      *float64 `gorm:"column:protein_g"`
	CarbsG        *float64 `gorm:"column:carbs_g"`
	FatG          *float64 `gorm:"column:fat_g"`
	FiberG        *float64 `gorm:"column:fiber_g"`
	SugarG        *float64 `gorm:"column:sugar_g"`
	SodiumMg      *float64 `gorm:"column:sodium_mg"`
	CholesterolMg *float64 `gorm:"column:cholesterol_mg"`
	SaturatedFatG *float64 `gorm:"column:saturated_fat_g"`
	CreatedAt     time.Time
	UpdatedAt     time.Time `gorm:"index"`
}

// TableName specifies the table name
func (NutritionEstimateModel) TableName() string {
	return "nutrition_estimates"
}

// nutrientColumns lists the columns rewritten on upsert
var nutrientColumns = []string{
	"source",
	"calories",
	"protein_g",
	"carbs_g",
	"fat_g",
	"fiber_g",
	"sugar_g",
	"sodium_mg",
	"cholesterol_mg",
	"saturated_fat_g",
	"updated_at",
}

// EstimateToModel converts a stored estimate to its row
func EstimateToModel(e *outbound.NutritionEstimate) *NutritionEstimateModel {
	p := e.Profile.Clone()
	return &NutritionEstimateModel{
		Key:           e.Key,
		Source:        e.Source,
		Calories:      p.Calories,
		ProteinG:      p.ProteinG,
		CarbsG:        p.CarbsG,
		FatG:          p.FatG,
		FiberG:        p.FiberG,
		SugarG:        p.SugarG,
		SodiumMg:      p.SodiumMg,
		CholesterolMg: p.CholesterolMg,
		SaturatedFatG: p.SaturatedFatG,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// ModelToEstimate converts a row back to the port type
func ModelToEstimate(m *NutritionEstimateModel) *outbound.NutritionEstimate {
	p := nutrition.Profile{
		Calories:      m.Calories,
		ProteinG:      m.ProteinG,
		CarbsG:        m.CarbsG,
		FatG:          m.FatG,
		FiberG:        m.FiberG,
		SugarG:        m.SugarG,
		SodiumMg:      m.SodiumMg,
		CholesterolMg: m.CholesterolMg,
		SaturatedFatG: m.SaturatedFatG,
	}
	return &outbound.NutritionEstimate{
		Key:       m.Key,
		Source:    m.Source,
		Profile:   p.Clone(),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
