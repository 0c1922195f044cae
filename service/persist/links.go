package persist

import (
	"sort"
	"strings"
)

// PhotoCount returns how many photos reference the given collection,
// tolerating refs stored as integers or string-encoded integers.
func PhotoCount(photos []Photo, collectionID int64) int {
	count := 0
	for _, p := range photos {
		if p.CollectionID.References(collectionID) {
			count++
		}
	}
	return count
}

// CollectionName resolves a reference to its collection's name. A null or
// dangling reference resolves to the empty string; it is not an error, since
// photos keep weak references and nothing cascades on delete.
func CollectionName(collections []Collection, ref CollectionRef) string {
	if !ref.Valid() {
		return ""
	}
	if coll, ok := FindCollection(collections, ref.ID()); ok {
		return coll.Name
	}
	return ""
}

// FindCollection looks a collection up by exact ID.
func FindCollection(collections []Collection, id int64) (Collection, bool) {
	for _, c := range collections {
		if c.ID == id {
			return c, true
		}
	}
	return Collection{}, false
}

// FindPhoto looks a photo up by exact ID.
func FindPhoto(photos []Photo, id int64) (Photo, bool) {
	for _, p := range photos {
		if p.ID == id {
			return p, true
		}
	}
	return Photo{}, false
}

// PhotosInCollection returns the photos referencing the collection, newest
// first. Upload dates are ISO-8601 strings so the sort is lexicographic;
// ties keep their input order.
func PhotosInCollection(photos []Photo, collectionID int64) []Photo {
	matched := make([]Photo, 0)
	for _, p := range photos {
		if p.CollectionID.References(collectionID) {
			matched = append(matched, p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].UploadDate > matched[j].UploadDate
	})
	return matched
}

// CollectionNameTaken reports whether a collection other than excludeID
// already uses the name, compared case-insensitively. Pass excludeID 0 when
// creating.
func CollectionNameTaken(collections []Collection, name string, excludeID int64) bool {
	for _, c := range collections {
		if c.ID != excludeID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
