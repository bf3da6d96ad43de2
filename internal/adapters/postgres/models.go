package postgres

type bookModel struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	Title     string `gorm:"column:title"`
	Author    string `gorm:"column:author"`
	Condition string `gorm:"column:condition"`
}

func (bookModel) TableName() string { return "books" }

type saleModel struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	Seller    string `gorm:"column:seller"`
	Book      int64  `gorm:"column:book"`
	Price     int    `gorm:"column:price"`
	Condition string `gorm:"column:condition"`
}

func (saleModel) TableName() string { return "sales" }

type directoryEntryModel struct {
	Username string `gorm:"column:username;primaryKey"`
	Name     string `gorm:"column:name"`
	Email    string `gorm:"column:email"`
	Sales    string `gorm:"column:sales;type:jsonb"`
}

func (directoryEntryModel) TableName() string { return "directory_entries" }

type newsEntryModel struct {
	Sale          int64  `gorm:"column:sale;primaryKey"`
	SellerName    string `gorm:"column:seller_name"`
	BookTitle     string `gorm:"column:book_title"`
	BookPrice     int    `gorm:"column:book_price"`
	BookCondition string `gorm:"column:book_condition"`
	Position      int64  `gorm:"column:position"`
}

func (newsEntryModel) TableName() string { return "news_entries" }

type authUserModel struct {
	Username     string `gorm:"column:username;primaryKey"`
	PasswordHash string `gorm:"column:password_hash"`
	Name         string `gorm:"column:name"`
	Email        string `gorm:"column:email"`
	Roles        string `gorm:"column:roles;type:jsonb"`
}

func (authUserModel) TableName() string { return "auth_users" }
