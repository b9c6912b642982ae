package database

import (
	"fmt"

	"gorm.io/gorm"
)

// TitleFieldID is the fieldID of "title" in Zotero's fields table.
const TitleFieldID = 1

// schema is the subset of Zotero's tables this tool touches, with the
// same column names and types. Used for fixtures and demo databases.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		itemID INTEGER PRIMARY KEY,
		itemTypeID INT NOT NULL,
		dateAdded TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		dateModified TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		clientDateModified TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		libraryID INT NOT NULL,
		key TEXT NOT NULL,
		version INT NOT NULL DEFAULT 0,
		synced INT NOT NULL DEFAULT 0,
		UNIQUE (libraryID, key)
	)`,
	`CREATE TABLE IF NOT EXISTS itemAttachments (
		itemID INTEGER PRIMARY KEY,
		parentItemID INT,
		linkMode INT,
		contentType TEXT,
		charsetID INT,
		path TEXT,
		syncState INT DEFAULT 0,
		FOREIGN KEY (itemID) REFERENCES items(itemID) ON DELETE CASCADE,
		FOREIGN KEY (parentItemID) REFERENCES items(itemID) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS itemAnnotations (
		itemID INTEGER PRIMARY KEY,
		parentItemID INT NOT NULL,
		type INTEGER NOT NULL,
		authorName TEXT,
		text TEXT,
		comment TEXT,
		color TEXT,
		pageLabel TEXT,
		sortIndex TEXT NOT NULL,
		position TEXT NOT NULL,
		isExternal INT NOT NULL,
		FOREIGN KEY (itemID) REFERENCES items(itemID) ON DELETE CASCADE,
		FOREIGN KEY (parentItemID) REFERENCES itemAttachments(itemID)
	)`,
	`CREATE TABLE IF NOT EXISTS itemDataValues (
		valueID INTEGER PRIMARY KEY,
		value UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS itemData (
		itemID INT,
		fieldID INT,
		valueID,
		PRIMARY KEY (itemID, fieldID),
		FOREIGN KEY (itemID) REFERENCES items(itemID) ON DELETE CASCADE,
		FOREIGN KEY (valueID) REFERENCES itemDataValues(valueID)
	)`,
	`CREATE TABLE IF NOT EXISTS creators (
		creatorID INTEGER PRIMARY KEY,
		firstName TEXT,
		lastName TEXT,
		fieldMode INT,
		UNIQUE (lastName, firstName, fieldMode)
	)`,
	`CREATE TABLE IF NOT EXISTS itemCreators (
		itemID INT NOT NULL,
		creatorID INT NOT NULL,
		creatorTypeID INT NOT NULL DEFAULT 1,
		orderIndex INT NOT NULL DEFAULT 0,
		PRIMARY KEY (itemID, creatorID, creatorTypeID, orderIndex),
		UNIQUE (itemID, orderIndex),
		FOREIGN KEY (itemID) REFERENCES items(itemID) ON DELETE CASCADE,
		FOREIGN KEY (creatorID) REFERENCES creators(creatorID) ON DELETE CASCADE
	)`,
}

// CreateSchema creates the Zotero tables used by the importer if missing.
func CreateSchema(db *gorm.DB) error {
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
