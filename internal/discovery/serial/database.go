// internal/discovery/serial/database.go
package serial

import "strings"

// BoardInfo describes a USB serial bridge found on Nano boards
type BoardInfo struct {
	Board      string
	Bridge     string
	Confidence float64
}

type usbID struct {
	vendor  string
	product string
}

// BoardDatabase identifies Nano compatible boards by USB VID/PID
type BoardDatabase struct {
	products map[usbID]*BoardInfo
	vendors  map[string]*BoardInfo
}

// NewBoardDatabase creates and populates the board database
func NewBoardDatabase() *BoardDatabase {
	db := &BoardDatabase{
		products: make(map[usbID]*BoardInfo),
		vendors:  make(map[string]*BoardInfo),
	}
	db.initializeDatabase()
	return db
}

func (db *BoardDatabase) initializeDatabase() {
	// Arduino SA
	db.products[usbID{"2341", "0058"}] = &BoardInfo{Board: "Arduino Nano Every", Bridge: "native", Confidence: 0.95}
	db.products[usbID{"2341", "0043"}] = &BoardInfo{Board: "Arduino Uno", Bridge: "ATmega16U2", Confidence: 0.7}
	db.vendors["2341"] = &BoardInfo{Board: "Arduino", Bridge: "native", Confidence: 0.8}
	db.vendors["2a03"] = &BoardInfo{Board: "Arduino", Bridge: "native", Confidence: 0.8}

	// Original Nano v3 ships with an FT232RL
	db.products[usbID{"0403", "6001"}] = &BoardInfo{Board: "Arduino Nano", Bridge: "FT232R", Confidence: 0.9}

	// Most Nano clones
	db.products[usbID{"1a86", "7523"}] = &BoardInfo{Board: "Arduino Nano (clone)", Bridge: "CH340", Confidence: 0.85}
	db.products[usbID{"1a86", "55d4"}] = &BoardInfo{Board: "Arduino Nano (clone)", Bridge: "CH9102", Confidence: 0.75}

	// Less common clones
	db.products[usbID{"10c4", "ea60"}] = &BoardInfo{Board: "Arduino Nano (clone)", Bridge: "CP210x", Confidence: 0.5}
}

// Lookup identifies a VID/PID pair. Matching is case-insensitive.
func (db *BoardDatabase) Lookup(vendorID, productID string) (*BoardInfo, bool) {
	vendorID = strings.ToLower(vendorID)
	productID = strings.ToLower(productID)

	if info, ok := db.products[usbID{vendorID, productID}]; ok {
		return info, true
	}
	if info, ok := db.vendors[vendorID]; ok {
		return info, true
	}
	return nil, false
}
