package entities

// Gorm models for the subset of the Zotero schema this tool reads and writes.
// Column names follow Zotero's camelCase naming.

type Item struct {
	ItemID             int64  `gorm:"column:itemID;primaryKey;autoIncrement"`
	ItemTypeID         int    `gorm:"column:itemTypeID;not null"`
	DateAdded          string `gorm:"column:dateAdded;not null"`
	DateModified       string `gorm:"column:dateModified;not null"`
	ClientDateModified string `gorm:"column:clientDateModified;not null"`
	LibraryID          int    `gorm:"column:libraryID;not null"`
	Key                string `gorm:"column:key;not null"`
	Version            int    `gorm:"column:version;not null"`
	Synced             int    `gorm:"column:synced;not null"`
}

func (Item) TableName() string { return "items" }

type ItemAttachment struct {
	ItemID       int64  `gorm:"column:itemID;primaryKey;autoIncrement:false"`
	ParentItemID *int64 `gorm:"column:parentItemID"`
	LinkMode     int    `gorm:"column:linkMode"`
	ContentType  string `gorm:"column:contentType"`
	Path         string `gorm:"column:path"`
}

func (ItemAttachment) TableName() string { return "itemAttachments" }

type ItemAnnotation struct {
	ItemID       int64  `gorm:"column:itemID;primaryKey;autoIncrement:false"`
	ParentItemID int64  `gorm:"column:parentItemID;not null"`
	Type         int    `gorm:"column:type;not null"`
	Text         string `gorm:"column:text"`
	Comment      string `gorm:"column:comment"`
	Color        string `gorm:"column:color"`
	PageLabel    string `gorm:"column:pageLabel"`
	SortIndex    string `gorm:"column:sortIndex;not null"`
	Position     string `gorm:"column:position;not null"`
	IsExternal   int    `gorm:"column:isExternal;not null"`
}

func (ItemAnnotation) TableName() string { return "itemAnnotations" }
