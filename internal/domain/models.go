package domain

// Sale is the sale-server's source-of-truth record for a listing.
type Sale struct {
	ID        int64
	Seller    string
	Book      int64
	Price     int
	Condition string
}

type Book struct {
	ID        int64
	Title     string
	Author    string
	Condition string
}

// DirectoryEntry is the denormalized projection kept by the seller and user
// directories. The sales list is eventually consistent with the sale-server,
// maintained purely by consuming events.
type DirectoryEntry struct {
	Username string
	Name     string
	Email    string
	Sales    []int64
}

// NewsEntry is a human-readable snapshot of a sale at event time.
type NewsEntry struct {
	Sale          int64
	SellerName    string
	BookTitle     string
	BookPrice     int
	BookCondition string
}

// AuthUser is the gateway's credential record.
type AuthUser struct {
	Username     string
	PasswordHash string
	Name         string
	Email        string
	Roles        []string
}
