package domain

import "time"

// User represents a bot user stored in the database.
type User struct {
	ID                 int64
	TelegramID         int64
	FirstName          string
	LastName           string
	Username           string
	LanguageCode       string
	HasTelegramPremium bool
	IsPremium          bool
	PremiumExpiresAt   *time.Time
	IsBlocked          bool
	BlockReason        string
	BlockedAt          *time.Time
	PremiumBanCount    int
	IsPremiumBanned    bool
	PremiumBannedAt    *time.Time
	CreatedAt          time.Time
	LastActiveAt       time.Time
}

// HasActivePremium reports whether the user holds a premium subscription that
// has not expired at now.
func (u *User) HasActivePremium(now time.Time) bool {
	if u == nil || !u.IsPremium {
		return false
	}
	return u.PremiumExpiresAt == nil || u.PremiumExpiresAt.After(now)
}

// DisplayName returns the best human readable name for the user.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	default:
		return "Noma'lum"
	}
}

// UserStatistics aggregates user counters for the admin dashboard.
type UserStatistics struct {
	TotalUsers   int
	PremiumUsers int
	BlockedUsers int
	ActiveUsers  int
	NewUsers     int
}

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleSuperAdmin Role = "SUPERADMIN"
)

func (r Role) rank() int {
	switch r {
	case RoleSuperAdmin:
		return 3
	case RoleManager:
		return 2
	case RoleAdmin:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r grants at least the privileges of other.
func (r Role) AtLeast(other Role) bool {
	return r.rank() >= other.rank() && r.rank() > 0
}

func (r Role) Valid() bool {
	return r.rank() > 0
}

// Admin is a Telegram user allowed into the admin panel.
type Admin struct {
	ID               int64
	TelegramID       int64
	Username         string
	Role             Role
	CanDeleteContent bool
	CreatedBy        *int64
	CreatedAt        time.Time
}

// Permission names an admin capability.
type Permission string

const (
	PermContent       Permission = "content"
	PermStatistics    Permission = "statistics"
	PermChannels      Permission = "channels"
	PermPayments      Permission = "payments"
	PermUsers         Permission = "users"
	PermAdmins        Permission = "admins"
	PermBroadcast     Permission = "broadcast"
	PermSettings      Permission = "settings"
	PermDeleteContent Permission = "delete_content"
)

var permissionRoles = map[Permission]Role{
	PermContent:    RoleAdmin,
	PermStatistics: RoleAdmin,
	PermChannels:   RoleManager,
	PermPayments:   RoleManager,
	PermUsers:      RoleManager,
	PermAdmins:     RoleSuperAdmin,
	PermBroadcast:  RoleSuperAdmin,
	PermSettings:   RoleSuperAdmin,
}

// Can reports whether the admin holds perm.
func (a *Admin) Can(perm Permission) bool {
	if a == nil {
		return false
	}
	if perm == PermDeleteContent {
		return a.Role == RoleSuperAdmin || a.CanDeleteContent
	}
	required, ok := permissionRoles[perm]
	if !ok {
		return false
	}
	return a.Role.AtLeast(required)
}
