package config

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/NERVsystems/nine9p/internal/fsdriver"
	"github.com/NERVsystems/nine9p/internal/wire"
)

// LoadTree parses a JSON tree-config file into an fsdriver.Tree. Each node
// is an object with "name", "type" ("dir" or "file"), and for files a
// "content" string and optional "writable" bool; directories carry a
// "children" array of the same shape.
func LoadTree(path string, ioSize uint32) (*fsdriver.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tree config: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("tree config %s is not valid JSON", path)
	}
	root := buildTreeNode(gjson.ParseBytes(data))
	return fsdriver.NewTree(root, ioSize), nil
}

func buildTreeNode(val gjson.Result) *fsdriver.Node {
	name := val.Get("name").String()
	if val.Get("type").String() == "dir" {
		children := []*fsdriver.Node{}
		val.Get("children").ForEach(func(_, child gjson.Result) bool {
			children = append(children, buildTreeNode(child))
			return true
		})
		return &fsdriver.Node{
			Name:     name,
			Qid:      wire.Qid{Type: wire.QTDIR, Path: fsdriver.NextPath()},
			Mode:     wire.DMDIR,
			Children: children,
		}
	}

	content := val.Get("content").String()
	node := &fsdriver.Node{
		Name: name,
		Qid:  wire.Qid{Type: wire.QTFILE, Path: fsdriver.NextPath()},
		Mode: wire.DMREAD,
		Content: func() []byte {
			return []byte(content)
		},
	}
	if val.Get("writable").Bool() {
		node.Mode |= wire.DMWRITE
		// Tree-config files are a static presentation of the config
		// document; writes are acknowledged but do not mutate the live
		// tree. Use SetNodeContent against the backing file to change what
		// gets served, then reload.
		node.Write = func(offset int64, data []byte) (int, error) {
			return len(data), nil
		}
	}
	return node
}

// SetNodeContent patches the "content" field of the node reached by
// following path (a slice of child names from the document root) inside
// raw JSON tree-config bytes, without re-encoding the rest of the
// document. cmd/9pd does not call it.
func SetNodeContent(doc []byte, path []string, content string) ([]byte, error) {
	sjsonPath, ok := findArrayPath(string(doc), path)
	if !ok {
		return nil, fmt.Errorf("tree config: node %v not found", path)
	}
	return sjson.SetBytes(doc, sjsonPath+".content", content)
}

// findArrayPath walks doc's "children" arrays matching each segment's
// "name" field, building the concrete dotted array-index path sjson needs
// (gjson's "#(name==x)" query form is read-only).
func findArrayPath(doc string, segments []string) (string, bool) {
	cur := gjson.Parse(doc)
	var sjsonPath string
	for _, seg := range segments {
		children := cur.Get("children")
		if !children.Exists() {
			return "", false
		}
		idx := -1
		children.ForEach(func(key, value gjson.Result) bool {
			if value.Get("name").String() == seg {
				idx = int(key.Int())
				return false
			}
			return true
		})
		if idx < 0 {
			return "", false
		}
		if sjsonPath == "" {
			sjsonPath = fmt.Sprintf("children.%d", idx)
		} else {
			sjsonPath = fmt.Sprintf("%s.children.%d", sjsonPath, idx)
		}
		cur = children.Get(fmt.Sprintf("%d", idx))
	}
	return sjsonPath, true
}
