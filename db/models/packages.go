package models

import (
	"time"
)

// Package is the central registry entity. ID is assigned at persistence
// time. Name carries a unique index: the store is the final arbiter for
// name collisions that slip past the in-pipeline check.
type Package struct {
	ID            string `gorm:"primaryKey;size:64"`
	Name          string `gorm:"uniqueIndex;size:214"`
	Version       string `gorm:"size:64"`
	URL           string `gorm:"index"`
	ContentRef    string
	ContentDigest string `gorm:"index;size:64"`
	JSProgram     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PackageRating is one-to-one with Package and immutable after ingestion.
// All sub-scores are clamped to [0,1].
type PackageRating struct {
	PackageID              string `gorm:"primaryKey;size:64"`
	BusFactor              float64
	Correctness            float64
	RampUp                 float64
	ResponsiveMaintainer   float64
	LicenseScore           float64
	GoodPinningPractice    float64
	GoodEngineeringProcess float64
	NetScore               float64
	CreatedAt              time.Time
}

// PackageHistoryEntry is append-only; rows are never updated or deleted.
// Name/Version/PackageID snapshot the package metadata at action time.
type PackageHistoryEntry struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	UserName  string
	IsAdmin   bool
	Date      time.Time
	Name      string `gorm:"index;size:214"`
	Version   string `gorm:"size:64"`
	PackageID string `gorm:"index;size:64"`
	Action    string `gorm:"size:16"`
}
