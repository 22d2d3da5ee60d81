package genx

import (
	"slices"
)

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

var (
	_ Part = (*Blob)(nil)
	_ Part = (*Text)(nil)
)

type Message struct {
	Role     Role
	Name     string
	Contents Contents
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	out := &Message{Role: m.Role, Name: m.Name}
	if m.Contents != nil {
		out.Contents = make(Contents, len(m.Contents))
		for i, p := range m.Contents {
			out.Contents[i] = p.clone()
		}
	}
	return out
}

type Role string

func (r Role) String() string {
	return string(r)
}

type Contents []Part

type Part interface {
	isPart()
	clone() Part
}

type Blob struct {
	MIMEType string
	Data     []byte
}

func (b *Blob) clone() Part {
	return &Blob{
		MIMEType: b.MIMEType,
		Data:     slices.Clone(b.Data),
	}
}

func (*Blob) isPart() {}

type Text string

func (t Text) clone() Part {
	return t
}

func (Text) isPart() {}
