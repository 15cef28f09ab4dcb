package index

import "fmt"

// GraphNode is one ADR in the relation graph.
type GraphNode struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	Package string `json:"package,omitempty"`
}

// GraphLink is a directed edge between two indexed ADRs.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Graph returns every indexed ADR and the edges whose target is indexed too.
// Dangling wikilinks are left out.
func (db *DB) Graph() ([]GraphNode, []GraphLink, error) {
	rows, err := db.conn.Query(`SELECT slug, title, status, package FROM adrs ORDER BY slug`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	defer rows.Close()

	nodes := []GraphNode{}
	for rows.Next() {
		var n GraphNode
		if err := rows.Scan(&n.Slug, &n.Title, &n.Status, &n.Package); err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	lrows, err := db.conn.Query(`
		SELECT l.source, l.target, l.type
		FROM links l
		JOIN adrs a ON a.slug = l.target
		ORDER BY l.source, l.target, l.type`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph links: %w", err)
	}
	defer lrows.Close()

	links := []GraphLink{}
	for lrows.Next() {
		var l GraphLink
		if err := lrows.Scan(&l.Source, &l.Target, &l.Type); err != nil {
			return nil, nil, err
		}
		links = append(links, l)
	}
	return nodes, links, lrows.Err()
}
