package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("duplicate value for unique field")
)

// Descriptor tells the generic repository and handlers how to treat one
// registry entity: where it lives, which columns the free-text filter
// scans, which fields callers may write, and how it is announced on the
// event hub.
type Descriptor struct {
	// Plural is the JSON response key and route segment base, e.g. "brokers".
	Plural string
	// Event is the notification name prefix, e.g. "broker" -> "brokerCreated".
	Event string
	Table string
	// SearchColumns are matched case-insensitively by the filter param.
	SearchColumns []string
	// DefaultSort is the list order, e.g. "email asc".
	DefaultSort string
	// Fields are the writable columns accepted from request payloads.
	Fields []string
	// HasAddress enables geocoding enrichment from address/city/state.
	HasAddress bool
}

// Entity is one reference-registry record type.
type Entity interface {
	Descriptor() Descriptor
}

// GeoPoint builds the GeoJSON point stored in location columns.
// Coordinates are [lng, lat], matching the GeoJSON convention.
func GeoPoint(lat, lng float64) map[string]any {
	return map[string]any{
		"type":        "Point",
		"coordinates": []float64{lng, lat},
	}
}

type Broker struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string         `json:"phone,omitempty"`
	State     string         `json:"state,omitempty"`
	City      string         `json:"city,omitempty"`
	Address   string         `json:"address,omitempty"`
	Location  datatypes.JSON `json:"location,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Broker) TableName() string { return "brokers" }

func (Broker) Descriptor() Descriptor {
	return Descriptor{
		Plural:        "brokers",
		Event:         "broker",
		Table:         "brokers",
		SearchColumns: []string{"email", "city", "state"},
		DefaultSort:   "email asc",
		Fields:        []string{"email", "phone", "state", "city", "address"},
		HasAddress:    true,
	}
}

type InsuranceCompany struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	CompanyName string         `gorm:"column:company_name" json:"company_name,omitempty"`
	CNPJ        string         `gorm:"column:cnpj" json:"cnpj,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Email       string         `json:"email,omitempty"`
	State       string         `json:"state,omitempty"`
	City        string         `json:"city,omitempty"`
	Address     string         `json:"address,omitempty"`
	Location    datatypes.JSON `json:"location,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (InsuranceCompany) TableName() string { return "insurance_companies" }

func (InsuranceCompany) Descriptor() Descriptor {
	return Descriptor{
		Plural:        "insuranceCompanies",
		Event:         "insuranceCompany",
		Table:         "insurance_companies",
		SearchColumns: []string{"company_name", "cnpj", "city"},
		DefaultSort:   "company_name asc",
		Fields:        []string{"company_name", "cnpj", "phone", "email", "state", "city", "address"},
		HasAddress:    true,
	}
}

type Insured struct {
	ID            snowflake.ID   `gorm:"primaryKey" json:"id"`
	CompanyName   string         `gorm:"column:company_name" json:"company_name,omitempty"`
	FantasyName   string         `gorm:"column:fantasy_name" json:"fantasy_name,omitempty"`
	CNPJ          string         `gorm:"column:cnpj" json:"cnpj,omitempty"`
	Email         string         `json:"email,omitempty"`
	State         string         `json:"state,omitempty"`
	City          string         `json:"city,omitempty"`
	Address       string         `json:"address,omitempty"`
	BusinessField string         `gorm:"column:business_field" json:"business_field,omitempty"`
	Location      datatypes.JSON `json:"location,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (Insured) TableName() string { return "insureds" }

func (Insured) Descriptor() Descriptor {
	return Descriptor{
		Plural:        "insureds",
		Event:         "insured",
		Table:         "insureds",
		SearchColumns: []string{"company_name", "fantasy_name", "cnpj"},
		DefaultSort:   "company_name asc",
		Fields:        []string{"company_name", "fantasy_name", "cnpj", "email", "state", "city", "address", "business_field"},
		HasAddress:    true,
	}
}

type Regulator struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `json:"name,omitempty"`
	CNPJ      string       `gorm:"column:cnpj" json:"cnpj,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	Email     string       `json:"email,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Regulator) TableName() string { return "regulators" }

func (Regulator) Descriptor() Descriptor {
	return Descriptor{
		Plural:        "regulators",
		Event:         "regulator",
		Table:         "regulators",
		SearchColumns: []string{"name", "cnpj", "email"},
		DefaultSort:   "name asc",
		Fields:        []string{"name", "cnpj", "phone", "email"},
	}
}

type RiskManager struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `json:"name,omitempty"`
	CNPJ      string       `gorm:"column:cnpj" json:"cnpj,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	Email     string       `json:"email,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (RiskManager) TableName() string { return "risk_managers" }

func (RiskManager) Descriptor() Descriptor {
	return Descriptor{
		Plural:        "riskManagers",
		Event:         "riskManager",
		Table:         "risk_managers",
		SearchColumns: []string{"name", "cnpj", "email"},
		DefaultSort:   "name asc",
		Fields:        []string{"name", "cnpj", "phone", "email"},
	}
}

type ShippingCompany struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyName string       `gorm:"column:company_name;not null" json:"company_name"`
	CNPJCPF     string       `gorm:"column:cnpj_cpf" json:"cnpj_cpf,omitempty"`
	RNTRC       string       `gorm:"column:rntrc" json:"rntrc,omitempty"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

func (ShippingCompany) TableName() string { return "shipping_companies" }

func (ShippingCompany) Descriptor() Descriptor {
	return Descriptor{
		Plural:        "shippingCompanies",
		Event:         "shippingCompany",
		Table:         "shipping_companies",
		SearchColumns: []string{"company_name", "cnpj_cpf"},
		DefaultSort:   "company_name asc",
		Fields:        []string{"company_name", "cnpj_cpf", "rntrc"},
	}
}

// Models lists every per-tenant registry model for migration.
func Models() []any {
	return []any{
		&Broker{},
		&InsuranceCompany{},
		&Insured{},
		&Regulator{},
		&RiskManager{},
		&ShippingCompany{},
	}
}
