// Package extract recovers protocol oracle records from TypeScript
// source files using tree-sitter.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/c360studio/oracletrack/protocol"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Extract walks a parsed syntax tree and returns every recognized
// protocol record keyed by id. It is a pure function of the tree and
// its source bytes: every node is visited exactly once, and an object
// nested inside another recognized object is still independently
// evaluated. Object literals without a string-valued id are ignored.
func Extract(root *sitter.Node, source []byte, sourceFile string) protocol.Dataset {
	dataset := make(protocol.Dataset)

	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()

	walk(cursor, source, sourceFile, dataset)
	return dataset
}

// walk recursively visits the tree, collecting records from object nodes.
func walk(cursor *sitter.TreeCursor, source []byte, sourceFile string, dataset protocol.Dataset) {
	node := cursor.CurrentNode()
	if node.Type() == "object" {
		if rec, ok := recordFromObject(node, source, sourceFile); ok {
			dataset[rec.ID] = rec
		}
	}

	if cursor.GoToFirstChild() {
		for {
			walk(cursor, source, sourceFile, dataset)
			if !cursor.GoToNextSibling() {
				break
			}
		}
		cursor.GoToParent()
	}
}

// recordFromObject scans the direct key/value pairs of an object
// literal for the recognized schema. Objects lacking a string id are
// not records (ok=false); structurally wrong field values are skipped,
// not errors.
func recordFromObject(obj *sitter.Node, source []byte, sourceFile string) (protocol.Record, bool) {
	rec := protocol.Record{
		SourceFile: sourceFile,
		Oracles:    []string{},
		Breakdown:  []protocol.BreakdownEntry{},
	}

	for i := 0; i < int(obj.ChildCount()); i++ {
		pair := obj.Child(i)
		if pair.Type() != "pair" {
			continue
		}
		keyNode := pair.ChildByFieldName("key")
		valueNode := pair.ChildByFieldName("value")
		if keyNode == nil || valueNode == nil {
			continue
		}

		switch keyName(keyNode, source) {
		case "id":
			if valueNode.Type() == "string" {
				rec.ID = protocol.Unquote(nodeText(valueNode, source))
			}
		case "name":
			if valueNode.Type() == "string" {
				rec.Name = protocol.Unquote(nodeText(valueNode, source))
			}
		case "oracles":
			if valueNode.Type() == "array" {
				rec.Oracles = protocol.NormalizeOracles(arrayStrings(valueNode, source))
			}
		case "oraclesBreakdown":
			if valueNode.Type() == "array" {
				rec.Breakdown = protocol.NormalizeBreakdown(breakdownEntries(valueNode, source))
			}
		}
	}

	if rec.ID == "" {
		return protocol.Record{}, false
	}
	return rec, true
}

// keyName returns the property name of a pair key node. Keys may be
// bare identifiers or quoted strings.
func keyName(key *sitter.Node, source []byte) string {
	switch key.Type() {
	case "property_identifier":
		return nodeText(key, source)
	case "string":
		return protocol.Unquote(nodeText(key, source))
	}
	return ""
}

// arrayStrings returns the unquoted values of the string elements of
// an array node. Non-string elements are ignored.
func arrayStrings(arr *sitter.Node, source []byte) []string {
	var out []string
	for i := 0; i < int(arr.NamedChildCount()); i++ {
		el := arr.NamedChild(i)
		if el.Type() == "string" {
			out = append(out, protocol.Unquote(nodeText(el, source)))
		}
	}
	return out
}

// breakdownEntries extracts name/type pairs from the object elements
// of an oraclesBreakdown array. Fields default to empty strings when
// absent or not string-valued.
func breakdownEntries(arr *sitter.Node, source []byte) []protocol.BreakdownEntry {
	var entries []protocol.BreakdownEntry
	for i := 0; i < int(arr.NamedChildCount()); i++ {
		el := arr.NamedChild(i)
		if el.Type() != "object" {
			continue
		}

		var entry protocol.BreakdownEntry
		for j := 0; j < int(el.ChildCount()); j++ {
			pair := el.Child(j)
			if pair.Type() != "pair" {
				continue
			}
			keyNode := pair.ChildByFieldName("key")
			valueNode := pair.ChildByFieldName("value")
			if keyNode == nil || valueNode == nil || valueNode.Type() != "string" {
				continue
			}
			switch keyName(keyNode, source) {
			case "name":
				entry.Name = protocol.Unquote(nodeText(valueNode, source))
			case "type":
				entry.Type = protocol.Unquote(nodeText(valueNode, source))
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// ScanSource parses TypeScript source bytes and extracts all records.
// A parser failure is a hard error for the file: no partial dataset
// is produced.
func ScanSource(ctx context.Context, source []byte, sourceFile string) (protocol.Dataset, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", sourceFile, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parse %s: no syntax tree produced", sourceFile)
	}

	return Extract(root, source, sourceFile), nil
}

// ScanFile reads and parses a single data file.
func ScanFile(ctx context.Context, path string) (protocol.Dataset, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ScanSource(ctx, source, filepath.Base(path))
}

// nodeText returns the text content of a node.
func nodeText(node *sitter.Node, source []byte) string {
	return node.Content(source)
}
