package installer

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMountPointNotFound is returned when the attach output lists no mounted volume
var ErrMountPointNotFound = errors.New("mount point not found in attach output")

const (
	mountPointKey = "mount-point"
	devEntryKey   = "dev-entry"
)

type plistNode struct {
	XMLName  xml.Name
	Text     string      `xml:",chardata"`
	Children []plistNode `xml:",any"`
}

// first returns the first descendant named name in document order
func (n *plistNode) first(name string) *plistNode {
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == name {
			return c
		}
		if found := c.first(name); found != nil {
			return found
		}
	}
	return nil
}

// all returns every descendant named name in document order
func (n *plistNode) all(name string, out []*plistNode) []*plistNode {
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == name {
			out = append(out, c)
		}
		out = c.all(name, out)
	}
	return out
}

// textContent concatenates the character data of the node and its descendants
func (n *plistNode) textContent() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *plistNode) writeText(b *strings.Builder) {
	b.WriteString(n.Text)
	for i := range n.Children {
		n.Children[i].writeText(b)
	}
}

// ParseMountPoint returns the first mount point in the plist printed by hdiutil attach -plist
func ParseMountPoint(r io.Reader) (string, error) {
	return parseEntityKey(r, mountPointKey, ErrMountPointNotFound)
}

// ParseDevEntry returns the first device in the attach plist. It names the whole image,
// so detaching it releases every volume even when none was mounted.
func ParseDevEntry(r io.Reader) (string, error) {
	return parseEntityKey(r, devEntryKey, errDevEntryNotFound)
}

var errDevEntryNotFound = errors.New("device entry not found in attach output")

func parseEntityKey(r io.Reader, key string, notFound error) (string, error) {
	var root plistNode
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return "", fmt.Errorf("parse attach output: %w", err)
	}
	if root.XMLName.Local != "plist" {
		return "", fmt.Errorf("parse attach output: unexpected root element %q", root.XMLName.Local)
	}

	dict := root.first("dict")
	if dict == nil {
		return "", notFound
	}
	array := dict.first("array")
	if array == nil {
		return "", notFound
	}

	for _, entity := range array.all("dict", nil) {
		if value, ok := lookupKey(entity, key); ok {
			return value, nil
		}
	}
	return "", notFound
}

// lookupKey scans the direct children of a plist dict as key/value pairs
func lookupKey(dict *plistNode, key string) (string, bool) {
	var lastKey *string
	for i := range dict.Children {
		c := &dict.Children[i]
		if c.XMLName.Local == "key" {
			k := c.textContent()
			lastKey = &k
			continue
		}
		if lastKey != nil && *lastKey == key {
			return c.textContent(), true
		}
		lastKey = nil
	}
	return "", false
}
