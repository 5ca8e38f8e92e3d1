package services

import (
	"sort"
	"sync"
)

// CompanyNameIndex is a prefix-searchable set of company names used by the
// autocomplete endpoint. It is a derived structure: the store stays
// authoritative, the index is rebuildable from it (see Rebuild) and a stale
// entry only costs the caller an empty store lookup.
type CompanyNameIndex struct {
	mutex sync.RWMutex
	root  *trieNode
	size  int
}

type trieNode struct {
	children map[rune]*trieNode
	terminal bool
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

func NewCompanyNameIndex() *CompanyNameIndex {
	return &CompanyNameIndex{root: newTrieNode()}
}

// Put adds a company name to the index. Idempotent.
func (idx *CompanyNameIndex) Put(name string) {
	if name == "" {
		return
	}

	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	node := idx.root
	for _, r := range name {
		child, ok := node.children[r]
		if !ok {
			child = newTrieNode()
			node.children[r] = child
		}
		node = child
	}
	if !node.terminal {
		node.terminal = true
		idx.size++
	}
}

// Remove deletes a name from the index, pruning nodes left without children.
// Removing an absent name is a no-op.
func (idx *CompanyNameIndex) Remove(name string) {
	if name == "" {
		return
	}

	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	runes := []rune(name)
	path := make([]*trieNode, 0, len(runes)+1)

	node := idx.root
	path = append(path, node)
	for _, r := range runes {
		child, ok := node.children[r]
		if !ok {
			return
		}
		node = child
		path = append(path, node)
	}

	if !node.terminal {
		return
	}
	node.terminal = false
	idx.size--

	for i := len(runes) - 1; i >= 0; i-- {
		child := path[i+1]
		if child.terminal || len(child.children) > 0 {
			break
		}
		delete(path[i].children, runes[i])
	}
}

// SearchByPrefix returns every indexed name starting with prefix, in
// lexicographic order. An empty prefix returns all names.
func (idx *CompanyNameIndex) SearchByPrefix(prefix string) []string {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	node := idx.root
	for _, r := range prefix {
		child, ok := node.children[r]
		if !ok {
			return []string{}
		}
		node = child
	}

	results := []string{}
	collectNames(node, prefix, &results)
	return results
}

func collectNames(node *trieNode, current string, results *[]string) {
	if node.terminal {
		*results = append(*results, current)
	}

	runes := make([]rune, 0, len(node.children))
	for r := range node.children {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })

	for _, r := range runes {
		collectNames(node.children[r], current+string(r), results)
	}
}

// Size returns the number of indexed names.
func (idx *CompanyNameIndex) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return idx.size
}

// Rebuild replaces the index contents with the given names, used to warm the
// index from the store at startup.
func (idx *CompanyNameIndex) Rebuild(names []string) {
	fresh := newTrieNode()

	idx.mutex.Lock()
	idx.root = fresh
	idx.size = 0
	idx.mutex.Unlock()

	for _, name := range names {
		idx.Put(name)
	}
}
