package repository

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ammiranda/repose/models"
)

func folderRow(id string, parentID *string) *models.Node {
	node, _ := models.RestoreNode(id, nil, parentID, &models.Folder{Name: id}, nil)
	return node
}

func requestRow(id string, parentID *string) *models.Node {
	node, _ := models.RestoreNode(id, nil, parentID, nil, models.NewRequest(id, ""))
	return node
}

func ptr(s string) *string { return &s }

func TestBuildForestChildrenBeforeParents(t *testing.T) {
	nodes := []*models.Node{
		requestRow("leaf", ptr("inner")),
		folderRow("inner", ptr("top")),
		requestRow("sibling", ptr("top")),
		folderRow("top", nil),
	}

	roots, err := BuildForest(nodes)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	top := roots[0]
	assert.Equal(t, "top", top.ID)
	require.Len(t, top.Children, 2)
	assert.Equal(t, "inner", top.Children[0].ID)
	assert.Equal(t, "sibling", top.Children[1].ID)
	require.Len(t, top.Children[0].Children, 1)
	assert.Equal(t, "leaf", top.Children[0].Children[0].ID)
}

func TestBuildForestDanglingParentBecomesRoot(t *testing.T) {
	nodes := []*models.Node{
		folderRow("a", nil),
		requestRow("orphan", ptr("missing")),
		requestRow("b", nil),
	}

	roots, err := BuildForest(nodes)
	require.NoError(t, err)
	require.Len(t, roots, 3)
	assert.Equal(t, []string{"a", "orphan", "b"}, []string{roots[0].ID, roots[1].ID, roots[2].ID})
	assert.Equal(t, "missing", *roots[1].ParentID)
}

func TestBuildForestEmpty(t *testing.T) {
	roots, err := BuildForest(nil)
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestBuildForestCorruption(t *testing.T) {
	tests := []struct {
		name  string
		nodes []*models.Node
	}{
		{
			name:  "duplicate id",
			nodes: []*models.Node{folderRow("a", nil), requestRow("a", nil)},
		},
		{
			name:  "self parent",
			nodes: []*models.Node{folderRow("a", ptr("a"))},
		},
		{
			name:  "request parent",
			nodes: []*models.Node{requestRow("a", nil), requestRow("b", ptr("a"))},
		},
		{
			name: "parent cycle",
			nodes: []*models.Node{
				folderRow("root", nil),
				folderRow("x", ptr("y")),
				folderRow("y", ptr("x")),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildForest(tc.nodes)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

// edges returns the parent -> sorted children relation of a forest plus its sorted roots
func edges(roots []*models.Node) (map[string][]string, []string) {
	rel := make(map[string][]string)
	var rootIDs []string
	for _, root := range roots {
		rootIDs = append(rootIDs, root.ID)
		root.Walk(func(n *models.Node) bool {
			for _, c := range n.Children {
				rel[n.ID] = append(rel[n.ID], c.ID)
			}
			return true
		})
	}
	for k := range rel {
		sort.Strings(rel[k])
	}
	sort.Strings(rootIDs)
	return rel, rootIDs
}

func TestBuildForestOrderIndependence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(t, "n")

		// Node i may only point at an earlier folder, at a dangling id, or at nothing
		var (
			specs   []*models.Node
			folders []string
		)
		for i := 0; i < n; i++ {
			id := string(rune('A'+i%26)) + string(rune('a'+i/26))
			var parentID *string
			switch rapid.IntRange(0, 2).Draw(t, "parentKind") {
			case 1:
				if len(folders) > 0 {
					parentID = ptr(rapid.SampledFrom(folders).Draw(t, "parent"))
				}
			case 2:
				parentID = ptr("dangling-" + id)
			}
			if rapid.Bool().Draw(t, "isFolder") {
				specs = append(specs, folderRow(id, parentID))
				folders = append(folders, id)
			} else {
				specs = append(specs, requestRow(id, parentID))
			}
		}

		clone := func(order []int) []*models.Node {
			out := make([]*models.Node, len(order))
			for i, j := range order {
				s := specs[j]
				f, _ := s.Folder()
				r, _ := s.Request()
				node, err := models.RestoreNode(s.ID, nil, s.ParentID, f, r)
				require.NoError(t, err)
				out[i] = node
			}
			return out
		}

		identity := make([]int, n)
		for i := range identity {
			identity[i] = i
		}
		shuffled := rapid.Permutation(identity).Draw(t, "order")

		want, err := BuildForest(clone(identity))
		require.NoError(t, err)
		got, err := BuildForest(clone(shuffled))
		require.NoError(t, err)

		wantRel, wantRoots := edges(want)
		gotRel, gotRoots := edges(got)
		assert.Equal(t, wantRoots, gotRoots)
		assert.Equal(t, wantRel, gotRel)

		count := 0
		for _, root := range got {
			root.Walk(func(*models.Node) bool { count++; return true })
		}
		assert.Equal(t, n, count, "every node appears exactly once")
	})
}
