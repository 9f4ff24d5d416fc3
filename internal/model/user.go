package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the single access role carried by a user.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// User is a registered account.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	ShopName     *string    `json:"shopName,omitempty" db:"shop_name"`
	FirstName    string     `json:"firstName" db:"first_name"`
	LastName     string     `json:"lastName" db:"last_name"`
	BirthDate    *time.Time `json:"birthDate,omitempty" db:"birth_date"`
	IDCard       *string    `json:"idCard,omitempty" db:"id_card"`
	Email        string     `json:"email" db:"email"`
	Tel          string     `json:"tel" db:"tel"`
	Sex          string     `json:"sex,omitempty" db:"sex"`
	ImageRef     string     `json:"image,omitempty" db:"image_ref"`
	PromptPayQR  string     `json:"promptPayQR,omitempty" db:"promptpay_qr"`
	Addresses    []Address  `json:"address"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// Address is a postal address in a user's address book.
type Address struct {
	Name        string `json:"addressName"`
	Phone       string `json:"phone"`
	Province    string `json:"province"`
	District    string `json:"district"`
	Subdistrict string `json:"subdistrict"`
	PostalCode  string `json:"postalCode"`
	Street      string `json:"street"`
	MapLocation string `json:"mapLocation,omitempty"`
	IsDefault   bool   `json:"isDefault"`
}

// MissingFields lists the required address fields that are blank.
func (a Address) MissingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"addressName", a.Name},
		{"phone", a.Phone},
		{"province", a.Province},
		{"district", a.District},
		{"subdistrict", a.Subdistrict},
		{"postalCode", a.PostalCode},
		{"street", a.Street},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// NormalizeAddresses validates an address book and returns a copy in which
// exactly one entry is flagged default. When no entry is flagged the first
// one is promoted.
func NormalizeAddresses(addresses []Address) ([]Address, error) {
	out := make([]Address, len(addresses))
	copy(out, addresses)

	defaults := 0
	for i, addr := range out {
		if missing := addr.MissingFields(); len(missing) > 0 {
			return nil, ErrInvalidAddress.WithMessage(
				fmt.Sprintf("address at index %d is missing required fields: %s", i, strings.Join(missing, ", ")))
		}
		if addr.IsDefault {
			defaults++
		}
	}

	if defaults > 1 {
		return nil, ErrInvalidAddress.WithMessage("only one address may be the default")
	}
	if defaults == 0 && len(out) > 0 {
		out[0].IsDefault = true
	}

	return out, nil
}

// IsSeller reports whether the user may sell.
func (u User) IsSeller() bool {
	return u.Role == RoleSeller
}

// DisplayName returns the shop name for sellers and the username otherwise.
func (u User) DisplayName() string {
	if u.ShopName != nil && *u.ShopName != "" {
		return *u.ShopName
	}
	return u.Username
}

// StoreRequest carries the details supplied when a customer opens a store.
type StoreRequest struct {
	ShopName    string   `json:"shopName"`
	Address     *Address `json:"address,omitempty"`
	MapLocation string   `json:"mapLocation,omitempty"`
	Email       string   `json:"email,omitempty"`
	Tel         string   `json:"tel,omitempty"`
}

// OpenStore returns a new snapshot of the user promoted to seller. The
// receiver is left untouched. Only customers may open a store; the call is
// rejected for anyone who already sells.
func (u User) OpenStore(req StoreRequest, now time.Time) (User, error) {
	shopName := strings.TrimSpace(req.ShopName)
	if shopName == "" {
		return User{}, NewValidationError("shop name is required")
	}
	if u.Role == RoleSeller {
		return User{}, ErrAlreadySeller
	}
	if u.Role != RoleCustomer {
		return User{}, ErrForbidden.WithMessage("only customers can open a store")
	}

	next := u
	next.Addresses = make([]Address, len(u.Addresses))
	copy(next.Addresses, u.Addresses)

	if req.Address != nil {
		addr := *req.Address
		if missing := addr.MissingFields(); len(missing) > 0 {
			return User{}, ErrInvalidAddress.WithMessage(
				"address is missing required fields: " + strings.Join(missing, ", "))
		}
		if req.MapLocation != "" {
			addr.MapLocation = req.MapLocation
		}
		if len(next.Addresses) == 0 {
			addr.IsDefault = true
		}
		if addr.IsDefault {
			for i := range next.Addresses {
				next.Addresses[i].IsDefault = false
			}
		}
		next.Addresses = append(next.Addresses, addr)
	}

	next.Role = RoleSeller
	next.ShopName = &shopName
	if req.Email != "" {
		next.Email = req.Email
	}
	if req.Tel != "" {
		next.Tel = req.Tel
	}
	next.UpdatedAt = now

	return next, nil
}

// RegisterRequest represents the request payload for creating an account.
type RegisterRequest struct {
	Username  string     `json:"username"`
	Password  string     `json:"password"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	IDCard    string     `json:"idCard,omitempty"`
	Email     string     `json:"email"`
	Tel       string     `json:"tel"`
	Address   *Address   `json:"address,omitempty"`
}

// LoginRequest represents the request payload for authenticating.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair is the credential bundle issued on login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// ResetPasswordRequest represents a password change by the account owner.
type ResetPasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ProfileUpdate carries the self-service profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName   *string    `json:"firstName,omitempty"`
	LastName    *string    `json:"lastName,omitempty"`
	BirthDate   *time.Time `json:"birthDate,omitempty"`
	Tel         *string    `json:"tel,omitempty"`
	Sex         *string    `json:"sex,omitempty"`
	Email       *string    `json:"email,omitempty"`
	ShopName    *string    `json:"shopName,omitempty"`
	PromptPayQR *string    `json:"promptPayQR,omitempty"`
	Addresses   []Address  `json:"address,omitempty"`
}

// AdminUserUpdate carries the fields an administrator may change on any account.
type AdminUserUpdate struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
	Tel       *string `json:"tel,omitempty"`
	Role      *Role   `json:"role,omitempty"`
}
