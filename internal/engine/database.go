package engine

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/securetrust-dev/fraudguard/pkg/schema"
)

// CaseRow is the relational shape of a fraud case. Position holds the
// collection order so a round trip through the table preserves it.
type CaseRow struct {
	ID                 uint   `gorm:"primaryKey"`
	Position           int    `gorm:"not null"`
	Username           string `gorm:"not null;index"`
	SecurityIdentifier string `gorm:"not null"`
	CardEnding         string `gorm:"not null"`
	Amount             string `gorm:"not null"`
	Merchant           string `gorm:"not null"`
	Location           string `gorm:"not null"`
	Timestamp          string `gorm:"not null"`
	SecurityQuestion   string `gorm:"not null"`
	SecurityAnswer     string `gorm:"not null"`
	Status             string `gorm:"not null;default:pending_review"`
	OutcomeNote        string
}

// TableName pins the table the fraud desk owns.
func (CaseRow) TableName() string { return "fraud_cases" }

// DatabaseBackend keeps the case collection in a SQL database through GORM.
// It still honors the read-all/write-all contract: WriteAll swaps the whole
// table inside one transaction rather than patching rows.
type DatabaseBackend struct {
	db *gorm.DB
}

// NewDatabaseBackend connects with the given GORM dialector and migrates the
// fraud_cases table.
func NewDatabaseBackend(dialector gorm.Dialector) (*DatabaseBackend, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting: %v", ErrBackendUnavailable, err)
	}
	if err := db.AutoMigrate(&CaseRow{}); err != nil {
		return nil, fmt.Errorf("%w: migrating fraud_cases: %v", ErrBackendUnavailable, err)
	}
	return &DatabaseBackend{db: db}, nil
}

// ReadAll returns every stored case in collection order. Rows missing
// required fields are skipped with a warning.
func (d *DatabaseBackend) ReadAll() ([]schema.FraudCase, error) {
	var rows []CaseRow
	if err := d.db.Order("position asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: selecting fraud_cases: %v", ErrBackendUnavailable, err)
	}

	cases := []schema.FraudCase{}
	for _, row := range rows {
		c := schema.FraudCase{
			Username:           row.Username,
			SecurityIdentifier: row.SecurityIdentifier,
			CardEnding:         row.CardEnding,
			Amount:             row.Amount,
			Merchant:           row.Merchant,
			Location:           row.Location,
			Timestamp:          row.Timestamp,
			SecurityQuestion:   row.SecurityQuestion,
			SecurityAnswer:     row.SecurityAnswer,
			Status:             schema.CaseStatus(row.Status),
			OutcomeNote:        row.OutcomeNote,
		}
		if valid, ok := decodeCase(c, fmt.Sprintf("fraud_cases row %d", row.ID)); ok {
			cases = append(cases, valid)
		}
	}
	return cases, nil
}

// WriteAll replaces the table contents with the given collection in one
// transaction.
func (d *DatabaseBackend) WriteAll(cases []schema.FraudCase) error {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&CaseRow{}).Error; err != nil {
			return err
		}
		for i, c := range cases {
			row := CaseRow{
				Position:           i,
				Username:           c.Username,
				SecurityIdentifier: c.SecurityIdentifier,
				CardEnding:         c.CardEnding,
				Amount:             c.Amount,
				Merchant:           c.Merchant,
				Location:           c.Location,
				Timestamp:          c.Timestamp,
				SecurityQuestion:   c.SecurityQuestion,
				SecurityAnswer:     c.SecurityAnswer,
				Status:             string(c.Status),
				OutcomeNote:        c.OutcomeNote,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: rewriting fraud_cases: %v", ErrBackendUnavailable, err)
	}
	return nil
}
