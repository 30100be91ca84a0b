package model

// Icon is a user avatar: the storage path plus a resolved download URL.
type Icon struct {
	URL      string `json:"url"`
	FullPath string `json:"fullPath"`
}

// User represents the signed-in user's profile.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	Icon          Icon   `json:"icon"`
}

// NewUser is the input for account creation.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Icon     string `json:"icon"`
}

// SignInInfo is the input for email/password sign-in.
type SignInInfo struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfilePatch updates the display name and/or icon path of the current user.
type ProfilePatch struct {
	Name *string
	Icon *string
}
