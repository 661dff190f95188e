package Models

// Versioned entities carry a counter that is bumped on every write so a
// stale read-modify-write is detected instead of silently overwriting.
type Versioned interface {
	GetID() uint
	GetVersion() uint
	SetVersion(v uint)
}

type Versioning struct {
	Version uint `json:"version" gorm:"not null;default:1"`
}

func (v *Versioning) GetVersion() uint { return v.Version }

func (v *Versioning) SetVersion(n uint) { v.Version = n }
