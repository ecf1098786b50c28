package reasoning

import (
	"local-guide/knowledge"
	"local-guide/retrieval"
)

// Attribute is a detail a query can ask for explicitly.
type Attribute string

const (
	AttributePrice    Attribute = "price"
	AttributeTime     Attribute = "time"
	AttributeLocation Attribute = "location"
)

// RequestedAttributes lists the attributes the query asks for, in a fixed order.
func RequestedAttributes(a retrieval.Analysis) []Attribute {
	var attrs []Attribute
	if a.PriceRequested {
		attrs = append(attrs, AttributePrice)
	}
	if a.TimeRequested {
		attrs = append(attrs, AttributeTime)
	}
	if a.LocationRequested() {
		attrs = append(attrs, AttributeLocation)
	}
	return attrs
}

// Supplies reports whether item carries attr for the analysed query.
func Supplies(attr Attribute, item knowledge.ContextItem, a retrieval.Analysis) bool {
	switch attr {
	case AttributePrice:
		return item.PriceRange != nil
	case AttributeTime:
		return len(item.TimeWindows) > 0 || item.Months != nil || len(item.Durations) > 0
	case AttributeLocation:
		for _, tag := range item.LocationTags {
			for _, loc := range a.Locations {
				if knowledge.SamePlace(tag, loc) {
					return true
				}
			}
		}
	}
	return false
}

// MissingAttributes lists the requested attributes no item in items
// supplies, along with how many were requested.
func MissingAttributes(a retrieval.Analysis, items []retrieval.ScoredItem) (requested int, missing []Attribute) {
	attrs := RequestedAttributes(a)
	for _, attr := range attrs {
		if !anySupplies(attr, items, a) {
			missing = append(missing, attr)
		}
	}
	return len(attrs), missing
}

func anySupplies(attr Attribute, items []retrieval.ScoredItem, a retrieval.Analysis) bool {
	for _, it := range items {
		if Supplies(attr, it.Item, a) {
			return true
		}
	}
	return false
}

// suppliesAny reports whether item carries any of attrs.
func suppliesAny(attrs []Attribute, item knowledge.ContextItem, a retrieval.Analysis) bool {
	for _, attr := range attrs {
		if Supplies(attr, item, a) {
			return true
		}
	}
	return false
}
