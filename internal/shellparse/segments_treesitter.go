//go:build cgo

package shellparse

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_bash "github.com/tree-sitter/tree-sitter-bash/bindings/go"
)

// Segments splits a command line into its individual commands using the bash
// grammar. Commands nested in substitutions are surfaced as their own
// segments. Falls back to the scanner when the parse fails or recovers with
// errors, so hostile input degrades to the conservative split instead of an
// empty result.
func Segments(command string) []string {
	if strings.TrimSpace(command) == "" {
		return nil
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tree_sitter.NewLanguage(tree_sitter_bash.Language())); err != nil {
		return splitCompound(command)
	}

	source := []byte(command)
	tree := parser.Parse(source, nil)
	if tree == nil {
		return splitCompound(command)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return splitCompound(command)
	}

	var segments []string
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "command" {
			start := n.StartByte()
			end := n.EndByte()
			if start < end && end <= uint(len(source)) {
				if text := strings.TrimSpace(string(source[start:end])); text != "" {
					segments = append(segments, text)
				}
			}
		}
		childCount := n.ChildCount()
		for i := uint(0); i < childCount; i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	if len(segments) == 0 {
		return splitCompound(command)
	}
	return segments
}
