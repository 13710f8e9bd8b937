package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var (
	ErrNotFound       = errors.New("attendance not found")
	ErrFollowUpIndex  = errors.New("follow-up index out of range")
	ErrActionRequired = errors.New("follow-up action note is required")
)

// FollowUp is one chronological progress note on a claim. Entries are
// append-only; the only in-place mutation allowed is removal by index.
type FollowUp struct {
	At         time.Time  `json:"datetime"`
	Actions    string     `json:"actions"`
	User       string     `json:"user"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

// FileMeta describes one stored attachment. Key is the blob storage key;
// the blob itself lives in the tenant's blob store.
type FileMeta struct {
	At           time.Time `json:"datetime"`
	Category     string    `json:"category"`
	OriginalName string    `json:"originalname"`
	Key          string    `json:"filename"`
}

// Attendance is a claim handling dossier. Field names mirror the intake
// forms used by the claims desk, including the Brazilian freight
// transport documents (CT-e, MDF-e, averbação).
type Attendance struct {
	ID snowflake.ID `gorm:"primaryKey" json:"id"`

	BrokerName           string `gorm:"column:broker_name" json:"broker_name,omitempty"`
	BrokerEmail          string `gorm:"column:broker_email" json:"broker_email,omitempty"`
	InsuranceCompanyName string `gorm:"column:insurance_company_name" json:"insurance_company_name,omitempty"`
	InsuredName          string `gorm:"column:insured_name" json:"insured_name,omitempty"`
	InsuredCNPJ          string `gorm:"column:insured_cnpj" json:"insured_cnpj,omitempty"`
	InsuredEmail         string `gorm:"column:insured_email" json:"insured_email,omitempty"`
	PolicyNumber         string `gorm:"column:policy_number" json:"policy_number,omitempty"`
	LineOfBusiness       string `gorm:"column:line_of_business" json:"line_of_business,omitempty"`
	Regulatory           string `json:"regulatory,omitempty"`
	RiskManager          string `gorm:"column:risk_manager" json:"risk_manager,omitempty"`

	InsuranceClaimNumber string     `gorm:"column:insurance_claim_number" json:"insurance_claim_number,omitempty"`
	RegulatorClaimNumber string     `gorm:"column:regulator_claim_number" json:"regulator_claim_number,omitempty"`
	LossEstimation       float64    `gorm:"column:loss_estimation" json:"loss_estimation,omitempty"`
	Deductible           float64    `json:"deductible,omitempty"`
	POS                  string     `gorm:"column:pos" json:"pos,omitempty"`
	FixedLoss            float64    `gorm:"column:fixed_loss" json:"fixed_loss,omitempty"`
	IndemnifiedLoss      float64    `gorm:"column:indemnified_loss" json:"indemnified_loss,omitempty"`
	ClosingDate          *time.Time `gorm:"column:closing_date" json:"closing_date,omitempty"`

	Cause          string     `json:"cause,omitempty"`
	CauseType      string     `gorm:"column:cause_type" json:"cause_type,omitempty"`
	EventDate      *time.Time `gorm:"column:event_date" json:"event_date,omitempty"`
	EventTime      string     `gorm:"column:event_time" json:"event_time,omitempty"`
	NoticeDate     *time.Time `gorm:"column:notice_date" json:"notice_date,omitempty"`
	NoticeTime     string     `gorm:"column:notice_time" json:"notice_time,omitempty"`
	EventAddress   string     `gorm:"column:event_address" json:"event_address,omitempty"`
	EventCity      string     `gorm:"column:event_city" json:"event_city,omitempty"`
	EventState     string     `gorm:"column:event_state" json:"event_state,omitempty"`
	EventLatitude  float64    `gorm:"column:event_latitude" json:"event_latitude,omitempty"`
	EventLongitude float64    `gorm:"column:event_longitude" json:"event_longitude,omitempty"`

	ShippingCompany      string `gorm:"column:shipping_company" json:"shipping_company,omitempty"`
	ShippingCompanyCNPJ  string `gorm:"column:shipping_company_cnpj" json:"shipping_company_cnpj,omitempty"`
	ShippingCompanyEmail string `gorm:"column:shipping_company_email" json:"shipping_company_email,omitempty"`

	VehicleBrand string `gorm:"column:vehicle_brand" json:"vehicle_brand,omitempty"`
	VehicleModel string `gorm:"column:vehicle_model" json:"vehicle_model,omitempty"`
	VehicleYear  string `gorm:"column:vehicle_year" json:"vehicle_year,omitempty"`
	VehiclePlate string `gorm:"column:vehicle_plate" json:"vehicle_plate,omitempty"`
	CartBrand    string `gorm:"column:cart_brand" json:"cart_brand,omitempty"`
	CartModel    string `gorm:"column:cart_model" json:"cart_model,omitempty"`
	CartYear     string `gorm:"column:cart_year" json:"cart_year,omitempty"`
	CartPlate    string `gorm:"column:cart_plate" json:"cart_plate,omitempty"`

	DriverName string `gorm:"column:driver_name" json:"driver_name,omitempty"`
	DriverCPF  string `gorm:"column:driver_cpf" json:"driver_cpf,omitempty"`
	DriverCNH  string `gorm:"column:driver_cnh" json:"driver_cnh,omitempty"`
	BirthYear  string `gorm:"column:birth_year" json:"birth_year,omitempty"`

	SenderName       string `gorm:"column:sender_name" json:"sender_name,omitempty"`
	OriginCity       string `gorm:"column:origin_city" json:"origin_city,omitempty"`
	OriginState      string `gorm:"column:origin_state" json:"origin_state,omitempty"`
	ReceiverName     string `gorm:"column:receiver_name" json:"receiver_name,omitempty"`
	DestinationCity  string `gorm:"column:destination_city" json:"destination_city,omitempty"`
	DestinationState string `gorm:"column:destination_state" json:"destination_state,omitempty"`

	InvoiceNumber      string  `gorm:"column:invoice_number" json:"invoice_number,omitempty"`
	InvoiceValue       float64 `gorm:"column:invoice_value" json:"invoice_value,omitempty"`
	Goods              string  `json:"goods,omitempty"`
	RiskClassification string  `gorm:"column:risk_classification" json:"risk_classification,omitempty"`
	CTENumber          string  `gorm:"column:cte_number" json:"cte_number,omitempty"`
	CTEValue           float64 `gorm:"column:cte_value" json:"cte_value,omitempty"`
	MDFENumber         string  `gorm:"column:mdfe_number" json:"mdfe_number,omitempty"`
	MDFEValue          float64 `gorm:"column:mdfe_value" json:"mdfe_value,omitempty"`
	AverbacaoNumber    string  `gorm:"column:averbacao_number" json:"averbacao_number,omitempty"`
	AverbacaoValue     float64 `gorm:"column:averbacao_value" json:"averbacao_value,omitempty"`

	EventDescription string `gorm:"column:event_description" json:"event_description,omitempty"`
	Notes            string `json:"notes,omitempty"`

	FollowUps datatypes.JSONSlice[FollowUp] `gorm:"column:followups" json:"followups"`
	Files     datatypes.JSONSlice[FileMeta] `gorm:"column:files" json:"files"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Attendance) TableName() string { return "attendances" }
