package availability

import (
	"encoding/xml"

	"stacksgw/internal/catalog"
	"stacksgw/internal/errdefs"
)

// holdingsDocument is the per-item holdings XML returned by the
// availability origin.
type holdingsDocument struct {
	CanHold  canHoldElem   `xml:"canHold"`
	Holdings []holdingElem `xml:"holding"`
}

type canHoldElem struct {
	Value   string `xml:"value,attr"`
	Message string `xml:"message"`
}

type holdingElem struct {
	Holdable    bool        `xml:"holdable,attr"`
	Shadowed    bool        `xml:"shadowed,attr"`
	CallNumber  string      `xml:"callNumber"`
	ShelvingKey string      `xml:"shelvingKey"`
	Library     libraryElem `xml:"library"`
	Copies      []copyElem  `xml:"copy"`
}

type libraryElem struct {
	Name        string `xml:"name,attr"`
	Code        string `xml:"code,attr"`
	Deliverable bool   `xml:"deliverable,attr"`
	Remote      bool   `xml:"remoteStorage,attr"`
}

type copyElem struct {
	Number          int      `xml:"copyNumber,attr"`
	Barcode         string   `xml:"barCode,attr"`
	Shadowed        bool     `xml:"shadowed,attr"`
	Periodical      bool     `xml:"periodical,attr"`
	Circulate       bool     `xml:"circulate"`
	CurrentLocation locElem  `xml:"currentLocation"`
	HomeLocation    locElem  `xml:"homeLocation"`
	ItemType        typeElem `xml:"itemType"`
	LastCheckout    string   `xml:"lastCheckout"`
}

type locElem struct {
	Name string `xml:"name,attr"`
	Code string `xml:"code,attr"`
}

type typeElem struct {
	Code string `xml:"code,attr"`
}

// parseHoldings decodes one holdings document.
func parseHoldings(data []byte) (*holdingsDocument, error) {
	var doc holdingsDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errdefs.NewParseError("holdings document", err)
	}
	return &doc, nil
}

// apply copies the document's availability data onto the item: the
// hold-eligibility flag and message, then one Holding per holding
// element with its copies. Field values are carried over verbatim.
func (d *holdingsDocument) apply(item *catalog.Item) {
	item.Holdable = d.CanHold.Value == "yes"
	item.HoldMessage = d.CanHold.Message

	holdings := make([]*catalog.Holding, 0, len(d.Holdings))
	for seq, h := range d.Holdings {
		holding := &catalog.Holding{
			CallNumber:           h.CallNumber,
			NormalizedCallNumber: h.ShelvingKey,
			Sequence:             seq,
			Holdable:             h.Holdable,
			Shadowed:             h.Shadowed,
			LibraryName:          h.Library.Name,
			LibraryCode:          h.Library.Code,
			Deliverable:          h.Library.Deliverable,
			Remote:               h.Library.Remote,
		}
		for _, c := range h.Copies {
			holding.Copies = append(holding.Copies, &catalog.Copy{
				Number:          c.Number,
				Periodical:      c.Periodical,
				Barcode:         c.Barcode,
				Shadowed:        c.Shadowed,
				Circulate:       c.Circulate,
				CurrentLocation: catalog.Location(c.CurrentLocation),
				HomeLocation:    catalog.Location(c.HomeLocation),
				ItemType:        c.ItemType.Code,
				LastCheckout:    c.LastCheckout,
			})
		}
		holdings = append(holdings, holding)
	}
	item.Holdings = holdings
}
