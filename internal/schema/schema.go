// Package schema holds the wire DTOs shared across the marketplace services.
// Every message on the bus and every REST body is one of these shapes,
// serialized as JSON with nullable fields omitted.
package schema

// Topic names for the fanout exchanges.
const (
	TopicSaleCreated = "sale-created"
	TopicSaleUpdated = "sale-updated"
	TopicSaleDeleted = "sale-deleted"
	TopicUserCreated = "user-created"
)

// SaleDto is the canonical snapshot of a sale. The sale-created, sale-updated
// and sale-deleted payloads carry the full post-mutation snapshot, never a diff.
type SaleDto struct {
	ID        *int64  `json:"id,omitempty"`
	Seller    *string `json:"seller,omitempty"`
	Book      *int64  `json:"book,omitempty"`
	Price     *int    `json:"price,omitempty"`
	Condition *string `json:"condition,omitempty"`
}

type BookDto struct {
	ID        *int64  `json:"id,omitempty"`
	Title     *string `json:"title,omitempty"`
	Author    *string `json:"author,omitempty"`
	Condition *string `json:"condition,omitempty"`
}

// SellerDto doubles as the user-created payload: the gateway announces a new
// account with username, name and email, and the directory services build
// their entries from it.
type SellerDto struct {
	Username *string `json:"username,omitempty"`
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Sales    []int64 `json:"sales,omitempty"`
}

type UserDto struct {
	Username *string `json:"username,omitempty"`
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Sales    []int64 `json:"sales,omitempty"`
}

type NewsDto struct {
	Sale          *int64  `json:"sale,omitempty"`
	SellerName    *string `json:"sellerName,omitempty"`
	BookTitle     *string `json:"bookTitle,omitempty"`
	BookPrice     *int    `json:"bookPrice,omitempty"`
	BookCondition *string `json:"bookCondition,omitempty"`
}

// Ptr returns a pointer to v. Keeps DTO construction readable at call sites.
func Ptr[T any](v T) *T { return &v }
