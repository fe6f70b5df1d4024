package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
)

// BaseModel holds the id and timestamp columns of shared.Record
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to a domain record
func (m *BaseModel) ToDomain() shared.Record {
	return shared.Record{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainRecord populates BaseModel from a domain record
func (m *BaseModel) FromDomainRecord(e shared.Record) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel provides common persistence fields for aggregate roots.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainRecord(a.Record)
	m.Version = a.Version
}

// ToAggregateRoot rebuilds the domain aggregate base
func (m *AggregateModel) ToAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		Record:  m.BaseModel.ToDomain(),
		Version: m.Version,
	}
}

// OrderHeaderModel holds the columns shared by every order table
type OrderHeaderModel struct {
	Reference     string     `gorm:"type:varchar(64);not null;uniqueIndex"`
	ReferenceInt  int64      `gorm:"not null;default:0;index"`
	Description   string     `gorm:"type:varchar(250)"`
	Link          string     `gorm:"type:varchar(2000)"`
	TargetDate    *time.Time `gorm:"index"`
	IssueDate     *time.Time
	CompleteDate  *time.Time
	CreatedBy     *uuid.UUID `gorm:"type:uuid"`
	ResponsibleID *uuid.UUID `gorm:"type:uuid"`
	ProjectCode   string     `gorm:"type:varchar(50)"`
	ContactID     *uuid.UUID `gorm:"type:uuid"`
	AddressID     *uuid.UUID `gorm:"type:uuid"`
	Notes         string     `gorm:"type:text"`
}

// ToDomain converts the header columns
func (m *OrderHeaderModel) ToDomain() order.Header {
	return order.Header{
		Reference:     m.Reference,
		ReferenceInt:  m.ReferenceInt,
		Description:   m.Description,
		Link:          m.Link,
		TargetDate:    m.TargetDate,
		IssueDate:     m.IssueDate,
		CompleteDate:  m.CompleteDate,
		CreatedBy:     m.CreatedBy,
		ResponsibleID: m.ResponsibleID,
		ProjectCode:   m.ProjectCode,
		ContactID:     m.ContactID,
		AddressID:     m.AddressID,
		Notes:         m.Notes,
	}
}

// FromDomain populates the header columns
func (m *OrderHeaderModel) FromDomain(h order.Header) {
	m.Reference = h.Reference
	m.ReferenceInt = h.ReferenceInt
	m.Description = h.Description
	m.Link = h.Link
	m.TargetDate = h.TargetDate
	m.IssueDate = h.IssueDate
	m.CompleteDate = h.CompleteDate
	m.CreatedBy = h.CreatedBy
	m.ResponsibleID = h.ResponsibleID
	m.ProjectCode = h.ProjectCode
	m.ContactID = h.ContactID
	m.AddressID = h.AddressID
	m.Notes = h.Notes
}
