package repository

import (
	"reflect"

	"gopkg.in/yaml.v3"
)

// mergeDocument writes the values of src into dst in place, so that keys,
// comments and scalar styles a human wrote survive a save. Top-level keys keep
// the order of dst; the spots mapping follows the order of src. Spots named in
// keep keep their dst body untouched.
func mergeDocument(dst, src *yaml.Node, keep map[string]bool) {
	mergeMapping(dst, src, func(key string, d, s *yaml.Node) {
		if key == "spots" && d.Kind == yaml.MappingNode && s.Kind == yaml.MappingNode {
			mergeSpots(d, s, keep)
			return
		}
		mergeNode(d, s)
	})
}

// mergeSpots orders spots like src. A spot whose key is new but whose body is
// unchanged from a dropped key (a rename) keeps the old body node.
func mergeSpots(dst, src *yaml.Node, keep map[string]bool) {
	blockIfEmpty(dst)
	dstIdx := mappingIndex(dst)
	srcIdx := mappingIndex(src)

	var orphans []int
	for i := 0; i+1 < len(dst.Content); i += 2 {
		if _, ok := srcIdx[dst.Content[i].Value]; !ok {
			orphans = append(orphans, i)
		}
	}

	content := make([]*yaml.Node, 0, len(src.Content))
	for i := 0; i+1 < len(src.Content); i += 2 {
		key, val := src.Content[i], src.Content[i+1]
		if j, ok := dstIdx[key.Value]; ok {
			if !keep[key.Value] {
				mergeNode(dst.Content[j+1], val)
			}
			content = append(content, dst.Content[j], dst.Content[j+1])
			continue
		}

		reused := false
		for oi, j := range orphans {
			if j < 0 || !sameSpotBody(dst.Content[j+1], val) {
				continue
			}
			oldKey := dst.Content[j]
			oldKey.Value = key.Value
			oldKey.Style = key.Style
			content = append(content, oldKey, dst.Content[j+1])
			orphans[oi] = -1
			reused = true
			break
		}
		if !reused {
			content = append(content, key, val)
		}
	}
	dst.Content = content
}

func sameSpotBody(a, b *yaml.Node) bool {
	var sa, sb Spot
	if err := a.Decode(&sa); err != nil {
		return false
	}
	if err := b.Decode(&sb); err != nil {
		return false
	}
	return reflect.DeepEqual(sa, sb)
}

func mergeNode(dst, src *yaml.Node) {
	if dst.Kind != src.Kind {
		replaceNode(dst, src)
		return
	}
	switch dst.Kind {
	case yaml.ScalarNode:
		if sameScalar(dst, src) {
			return
		}
		if dst.ShortTag() != src.ShortTag() {
			dst.Style = src.Style
		}
		dst.Tag = src.Tag
		dst.Value = src.Value
	case yaml.MappingNode:
		blockIfEmpty(dst)
		mergeMapping(dst, src, func(_ string, d, s *yaml.Node) { mergeNode(d, s) })
	case yaml.SequenceNode:
		blockIfEmpty(dst)
		if len(dst.Content) != len(src.Content) {
			dst.Content = src.Content
			return
		}
		for i := range dst.Content {
			mergeNode(dst.Content[i], src.Content[i])
		}
	default:
		replaceNode(dst, src)
	}
}

// mergeMapping merges src into dst, keeping dst's key order. Keys missing
// from src are removed; keys new in src are appended.
func mergeMapping(dst, src *yaml.Node, merge func(key string, d, s *yaml.Node)) {
	dstIdx := mappingIndex(dst)
	srcIdx := mappingIndex(src)
	content := make([]*yaml.Node, 0, len(src.Content))

	for i := 0; i+1 < len(dst.Content); i += 2 {
		key := dst.Content[i].Value
		j, ok := srcIdx[key]
		if !ok {
			continue
		}
		merge(key, dst.Content[i+1], src.Content[j+1])
		content = append(content, dst.Content[i], dst.Content[i+1])
	}
	for i := 0; i+1 < len(src.Content); i += 2 {
		if _, ok := dstIdx[src.Content[i].Value]; !ok {
			content = append(content, src.Content[i], src.Content[i+1])
		}
	}
	dst.Content = content
}

// blockIfEmpty drops the flow style of an empty {} or [] so entries merged
// into it are written one per line.
func blockIfEmpty(n *yaml.Node) {
	if len(n.Content) == 0 {
		n.Style &^= yaml.FlowStyle
	}
}

func mappingIndex(n *yaml.Node) map[string]int {
	idx := make(map[string]int, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		idx[n.Content[i].Value] = i
	}
	return idx
}

// sameScalar compares decoded values so 9.20 and 9.2 count as equal.
func sameScalar(a, b *yaml.Node) bool {
	if a.Value == b.Value && a.ShortTag() == b.ShortTag() {
		return true
	}
	var va, vb interface{}
	if err := a.Decode(&va); err != nil {
		return false
	}
	if err := b.Decode(&vb); err != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

func replaceNode(dst, src *yaml.Node) {
	head, line, foot := dst.HeadComment, dst.LineComment, dst.FootComment
	*dst = *src
	if dst.HeadComment == "" {
		dst.HeadComment = head
	}
	if dst.LineComment == "" {
		dst.LineComment = line
	}
	if dst.FootComment == "" {
		dst.FootComment = foot
	}
}
