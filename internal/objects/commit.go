package objects

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signature identifies the author or committer of a commit.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

func (s Signature) String() string {
	return fmt.Sprintf("%s <%s>", s.Name, s.Email)
}

// Commit is an immutable snapshot: a root tree, at most one parent, an author
// and a message. The store's history is a single linear chain of commits.
type Commit struct {
	hash       string
	treeHash   string
	parentHash string
	author     Signature
	message    string
}

// NewCommit creates a commit of tree with the given parent. An empty
// parentHash marks the initial commit.
func NewCommit(treeHash, parentHash, message string, author Signature) *Commit {
	payload := buildCommitPayload(treeHash, parentHash, message, author)
	return &Commit{
		hash:       hashOf(KindCommit, payload),
		treeHash:   treeHash,
		parentHash: parentHash,
		author:     author,
		message:    message,
	}
}

func buildCommitPayload(treeHash, parentHash, message string, author Signature) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "tree %s\n", treeHash)
	if parentHash != "" {
		fmt.Fprintf(&buf, "parent %s\n", parentHash)
	}

	when := fmt.Sprintf("%d %s", author.When.Unix(), zone(author.When))
	fmt.Fprintf(&buf, "author %s <%s> %s\n", author.Name, author.Email, when)
	fmt.Fprintf(&buf, "committer %s <%s> %s\n", author.Name, author.Email, when)

	// The message is stored verbatim after the blank line. No newline is
	// appended or stripped anywhere, so any message, including one with
	// trailing blank lines, re-encodes byte-identically and keeps its hash.
	buf.WriteByte('\n')
	buf.WriteString(message)
	return buf.Bytes()
}

// zone formats the timestamp's UTC offset as ±HHMM. The sign comes from the
// offset itself; an hour field of zero must not swallow it.
func zone(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%02d%02d", sign, offset/3600, (offset%3600)/60)
}

// DecodeCommit parses a commit payload produced by buildCommitPayload. The
// decoded commit re-encodes byte-identically, so its hash is preserved.
func DecodeCommit(payload []byte) (*Commit, error) {
	text := string(payload)
	header, message, found := strings.Cut(text, "\n\n")
	if !found {
		return nil, fmt.Errorf("invalid commit: missing message separator")
	}

	var treeHash, parentHash string
	var author Signature
	for _, line := range strings.Split(header, "\n") {
		field, value, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("invalid commit header line %q", line)
		}
		switch field {
		case "tree":
			treeHash = value
		case "parent":
			parentHash = value
		case "author":
			sig, err := parseSignature(value)
			if err != nil {
				return nil, fmt.Errorf("invalid commit author: %w", err)
			}
			author = sig
		case "committer":
			// Single-writer store, committer always equals author.
		default:
			return nil, fmt.Errorf("unknown commit header field %q", field)
		}
	}
	if treeHash == "" {
		return nil, fmt.Errorf("invalid commit: missing tree")
	}

	return NewCommit(treeHash, parentHash, message, author), nil
}

// parseSignature parses "Name <email> <unix> <±HHMM>".
func parseSignature(s string) (Signature, error) {
	open := strings.LastIndex(s, "<")
	end := strings.LastIndex(s, ">")
	if open < 0 || end < open {
		return Signature{}, fmt.Errorf("malformed signature %q", s)
	}
	name := strings.TrimSpace(s[:open])
	email := s[open+1 : end]

	fields := strings.Fields(s[end+1:])
	if len(fields) != 2 {
		return Signature{}, fmt.Errorf("malformed signature timestamp in %q", s)
	}
	unix, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("malformed signature timestamp in %q", s)
	}
	offset, err := parseZone(fields[1])
	if err != nil {
		return Signature{}, err
	}
	return Signature{
		Name:  name,
		Email: email,
		When:  time.Unix(unix, 0).In(time.FixedZone("", offset)),
	}, nil
}

func parseZone(s string) (int, error) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return 0, fmt.Errorf("malformed timezone %q", s)
	}
	hours, err1 := strconv.Atoi(s[1:3])
	minutes, err2 := strconv.Atoi(s[3:5])
	if err1 != nil || err2 != nil {
		return 0, fmt.Errorf("malformed timezone %q", s)
	}
	offset := hours*3600 + minutes*60
	if s[0] == '-' {
		offset = -offset
	}
	return offset, nil
}

func (c *Commit) Hash() string {
	return c.hash
}

func (c *Commit) Kind() Kind {
	return KindCommit
}

func (c *Commit) TreeHash() string {
	return c.treeHash
}

// ParentHash returns the parent commit hash, empty for the initial commit.
func (c *Commit) ParentHash() string {
	return c.parentHash
}

func (c *Commit) IsInitial() bool {
	return c.parentHash == ""
}

func (c *Commit) Author() Signature {
	return c.author
}

func (c *Commit) Message() string {
	return c.message
}

func (c *Commit) Data() []byte {
	return encode(KindCommit, buildCommitPayload(c.treeHash, c.parentHash, c.message, c.author))
}

func (c *Commit) String() string {
	return fmt.Sprintf("Commit{hash: %.8s, tree: %.8s, message: %q}", c.hash, c.treeHash, c.message)
}
