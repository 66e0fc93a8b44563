package domain

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	YOB          int
	Gender       string
	IsAdmin      bool
	IsBlocked    bool
	BlockReason  string
	BlockedAt    *time.Time
	BlockedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Brand struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Perfume struct {
	ID             string
	Name           string
	URI            string
	Price          float64
	Concentration  string
	Description    string
	Ingredients    []string
	Volume         int
	TargetAudience string
	BrandID        string
	ImageURL       string
	ImageKey       string
	Category       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Comment struct {
	ID        string
	PerfumeID string
	UserID    string
	Content   string
	Rating    int
	CreatedAt time.Time
}
