package models

import (
	"time"
)

// ReportStatus is the review state of an activity report
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pendiente"
	ReportStatusInReview ReportStatus = "en_revision"
	ReportStatusApproved ReportStatus = "aprobado"
	ReportStatusRejected ReportStatus = "rechazado"
)

// ValidReportStatuses defines allowed report statuses
var ValidReportStatuses = map[ReportStatus]bool{
	ReportStatusPending:  true,
	ReportStatusInReview: true,
	ReportStatusApproved: true,
	ReportStatusRejected: true,
}

// Period is an academic period reports are filed against
type Period struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"nombre" db:"nombre"`
	StartDate time.Time `json:"fechaInicio" db:"fecha_inicio"`
	EndDate   time.Time `json:"fechaFin" db:"fecha_fin"`
	Active    bool      `json:"activo" db:"activo"`
}

// Report is an activity report submitted by a teacher
type Report struct {
	ID          string       `json:"id" db:"id"`
	TeacherID   string       `json:"docenteId" db:"docente_id"`
	TeacherName string       `json:"docente" db:"-"`
	PeriodID    int          `json:"periodoId" db:"periodo_id"`
	PeriodName  string       `json:"periodo" db:"-"`
	Category    string       `json:"categoria" db:"categoria"`
	Title       string       `json:"titulo" db:"titulo"`
	Status      ReportStatus `json:"estado" db:"estado"`
	SubmittedAt time.Time    `json:"fechaEnvio" db:"fecha_envio"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
}
