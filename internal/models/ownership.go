package models

// Owned is implemented by every entity that carries an owner column.
// A nil owner marks a global (shared) resource.
type Owned interface {
	OwnerID() *uint
}

// IsOwnerOrShared reports whether userID may act on r: r is global or owned
// by userID. This is the single authorization rule applied before mutations.
func IsOwnerOrShared(r Owned, userID uint) bool {
	owner := r.OwnerID()
	return owner == nil || *owner == userID
}

// IsOwner reports whether r is owned by userID. Global resources never match.
func IsOwner(r Owned, userID uint) bool {
	owner := r.OwnerID()
	return owner != nil && *owner == userID
}
