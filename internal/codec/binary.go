// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/salikh/grafl/internal/ruletree"
)

// wireKind is the on-the-wire tag for each ruletree.Kind. It is kept
// distinct from ruletree.Kind's int values so the wire format does not
// silently shift if the in-memory enum is ever reordered.
type wireKind uint8

const (
	wireLexerLeaf wireKind = iota + 1
	wireParserRule
	wireQuantifier
	wireQuantified
	wireAlternative
)

func toWireKind(k ruletree.Kind) (wireKind, bool) {
	switch k {
	case ruletree.KindLexerLeaf:
		return wireLexerLeaf, true
	case ruletree.KindParserRule:
		return wireParserRule, true
	case ruletree.KindQuantifier:
		return wireQuantifier, true
	case ruletree.KindQuantified:
		return wireQuantified, true
	case ruletree.KindAlternative:
		return wireAlternative, true
	default:
		return 0, false
	}
}

func fromWireKind(w wireKind) (ruletree.Kind, bool) {
	switch w {
	case wireLexerLeaf:
		return ruletree.KindLexerLeaf, true
	case wireParserRule:
		return ruletree.KindParserRule, true
	case wireQuantifier:
		return ruletree.KindQuantifier, true
	case wireQuantified:
		return ruletree.KindQuantified, true
	case wireAlternative:
		return ruletree.KindAlternative, true
	default:
		return 0, false
	}
}

// EncodeBinary serializes root into the self-describing binary record
// format of §6: one record per node, recursively, each record
// carrying exactly the fields its kind needs plus a child count.
// stop == ruletree.Unbounded is written as -1.
func EncodeBinary(root *ruletree.Node) []byte {
	var buf bytes.Buffer
	encodeNode(&buf, root)
	return buf.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func writeInt32(buf *bytes.Buffer, v int) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(int32(v)))
	buf.Write(b[:])
}

func encodeNode(buf *bytes.Buffer, n *ruletree.Node) {
	wk, ok := toWireKind(n.Kind)
	if !ok {
		// Unreachable for trees built through ruletree constructors;
		// defend anyway rather than emit a record Decode can't read.
		wk = 0
	}
	buf.WriteByte(byte(wk))
	switch n.Kind {
	case ruletree.KindLexerLeaf:
		writeString(buf, n.Name)
		writeString(buf, n.Src)
		writeInt32(buf, n.Depth)
		writeInt32(buf, n.Tokens)
		if n.Immutable {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case ruletree.KindParserRule:
		writeString(buf, n.Name)
	case ruletree.KindQuantifier:
		writeInt32(buf, n.QuantIndex)
		writeInt32(buf, n.Start)
		writeInt32(buf, n.Stop)
	case ruletree.KindAlternative:
		writeInt32(buf, n.AltIndex)
		writeInt32(buf, n.Chosen)
	case ruletree.KindQuantified:
		// No fields beyond kind + children.
	}
	writeInt32(buf, len(n.Children))
	for _, ch := range n.Children {
		encodeNode(buf, ch)
	}
}

// DecodeBinary parses data produced by EncodeBinary. It returns
// ErrCorruptTree (wrapped with context) on truncated input or an
// unknown kind tag.
func DecodeBinary(data []byte) (*ruletree.Node, error) {
	r := &reader{buf: data}
	n, err := decodeNode(r)
	if err != nil {
		return nil, err
	}
	if r.pos != len(r.buf) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptTree, len(r.buf)-r.pos)
	}
	return n, nil
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, fmt.Errorf("%w: unexpected end of input", ErrCorruptTree)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) int32() (int, error) {
	if r.pos+4 > len(r.buf) {
		return 0, fmt.Errorf("%w: unexpected end of input reading int", ErrCorruptTree)
	}
	v := int32(binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4]))
	r.pos += 4
	return int(v), nil
}

func (r *reader) string() (string, error) {
	n, err := r.int32()
	if err != nil {
		return "", err
	}
	if n < 0 || r.pos+n > len(r.buf) {
		return "", fmt.Errorf("%w: unexpected end of input reading string", ErrCorruptTree)
	}
	s := string(r.buf[r.pos : r.pos+n])
	r.pos += n
	return s, nil
}

func decodeNode(r *reader) (*ruletree.Node, error) {
	wb, err := r.byte()
	if err != nil {
		return nil, err
	}
	kind, ok := fromWireKind(wireKind(wb))
	if !ok {
		return nil, fmt.Errorf("%w: unknown node kind %d", ErrCorruptTree, wb)
	}
	n := &ruletree.Node{Kind: kind}
	var err2 error
	switch kind {
	case ruletree.KindLexerLeaf:
		if n.Name, err2 = r.string(); err2 != nil {
			return nil, err2
		}
		if n.Src, err2 = r.string(); err2 != nil {
			return nil, err2
		}
		if n.Depth, err2 = r.int32(); err2 != nil {
			return nil, err2
		}
		if n.Tokens, err2 = r.int32(); err2 != nil {
			return nil, err2
		}
		imm, err3 := r.byte()
		if err3 != nil {
			return nil, err3
		}
		n.Immutable = imm != 0
	case ruletree.KindParserRule:
		if n.Name, err2 = r.string(); err2 != nil {
			return nil, err2
		}
	case ruletree.KindQuantifier:
		if n.QuantIndex, err2 = r.int32(); err2 != nil {
			return nil, err2
		}
		if n.Start, err2 = r.int32(); err2 != nil {
			return nil, err2
		}
		if n.Stop, err2 = r.int32(); err2 != nil {
			return nil, err2
		}
	case ruletree.KindAlternative:
		if n.AltIndex, err2 = r.int32(); err2 != nil {
			return nil, err2
		}
		if n.Chosen, err2 = r.int32(); err2 != nil {
			return nil, err2
		}
	case ruletree.KindQuantified:
		// No fields.
	}
	count, err := r.int32()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative child count", ErrCorruptTree)
	}
	for i := 0; i < count; i++ {
		ch, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		ruletree.InsertChild(n, i, ch)
	}
	return n, nil
}
