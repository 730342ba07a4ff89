package document

import (
	"strings"
	"testing"

	"github.com/sessao/session-core/ast"
)

const handshakeDoc = `
protocol: Handshake
roles: [Client, Server]
types:
  - name: Status
    enum: [ok, retry, fail]
  - name: Payload
    struct:
      - name: data
        type: {array: {prim: u8}}
      - name: tag
        type: {prim: string}
        optional: true
  - name: SeqNo
    alias: {prim: u64}
phases:
  - name: Main
    body:
      - send:
          from: Client
          to: Server
          message: Hello
          fields:
            - name: version
              type: {prim: u32}
      - choice:
          role: Server
          branches:
            - name: accept
              guard: "@Server.compatible"
              body:
                - send: {from: Server, to: Client, message: Welcome}
                - end: true
            - name: reject
              guard: "@Server.!compatible"
              body:
                - send: {from: Server, to: Client, message: Refused}
                - end: true
`

func TestDecode(t *testing.T) {
	proto, err := Decode([]byte(handshakeDoc))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if proto.Name != "Handshake" {
		t.Errorf("name = %q, want Handshake", proto.Name)
	}
	if len(proto.Roles) != 2 || proto.Roles[0].Name != "Client" {
		t.Errorf("roles = %v", proto.Roles)
	}
	if len(proto.Types) != 3 {
		t.Fatalf("types = %d, want 3", len(proto.Types))
	}
	if enum, ok := proto.Types[0].Body.(*ast.EnumBody); !ok || len(enum.Variants) != 3 {
		t.Errorf("Status did not decode as a 3-variant enum: %+v", proto.Types[0].Body)
	}
	if st, ok := proto.Types[1].Body.(*ast.StructBody); !ok {
		t.Errorf("Payload did not decode as a struct")
	} else {
		if _, ok := st.Fields[0].Type.(ast.Array); !ok {
			t.Errorf("data field type = %T, want array", st.Fields[0].Type)
		}
		if !st.Fields[1].Optional {
			t.Error("tag field not optional")
		}
	}
	if _, ok := proto.Types[2].Body.(*ast.AliasBody); !ok {
		t.Error("SeqNo did not decode as an alias")
	}

	if len(proto.Phases) != 1 {
		t.Fatalf("phases = %d, want 1", len(proto.Phases))
	}
	body := proto.Phases[0].Body
	if len(body) != 2 {
		t.Fatalf("Main body = %d statements, want 2", len(body))
	}
	send, ok := body[0].(*ast.Send)
	if !ok || send.Message != "Hello" || len(send.Fields) != 1 {
		t.Fatalf("first statement = %+v, want Hello send", body[0])
	}
	choice, ok := body[1].(*ast.Choice)
	if !ok || choice.Role != "Server" || len(choice.Branches) != 2 {
		t.Fatalf("second statement = %+v, want Server choice", body[1])
	}
	g := choice.Branches[1].Guard
	if g == nil || g.Role != "Server" || g.Condition != "!compatible" {
		t.Errorf("reject guard = %+v, want @Server.!compatible", g)
	}
}

func TestDecodeControlForms(t *testing.T) {
	doc := `
protocol: Loop
roles: [A, B]
phases:
  - name: Main
    body:
      - unreliable:
          - send: {from: A, to: B, message: Tick}
      - send:
          from: A
          to: B
          message: Report
          fields:
            - name: ok
              type: {prim: bool}
      - match:
          on: Report.ok
          arms:
            - case: "true"
              body:
                - continue: Main
            - case: "false"
              body:
                - end: true
`
	proto, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	body := proto.Phases[0].Body
	if _, ok := body[0].(*ast.Unreliable); !ok {
		t.Errorf("statement 0 = %T, want Unreliable", body[0])
	}
	match, ok := body[2].(*ast.Match)
	if !ok || match.Expr != "Report.ok" {
		t.Fatalf("statement 2 = %+v, want match on Report.ok", body[2])
	}
	if _, ok := match.Arms[0].Body[0].(*ast.Continue); !ok {
		t.Error("true arm does not continue")
	}
	if _, ok := match.Arms[1].Body[0].(*ast.End); !ok {
		t.Error("false arm does not end")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "malformed guard",
			doc: `
protocol: P
roles: [A, B]
phases:
  - name: Main
    body:
      - choice:
          role: A
          branches:
            - name: a
              guard: "A.go"
              body: [{end: true}]
`,
			want: "must start with @",
		},
		{
			name: "unknown primitive",
			doc: `
protocol: P
roles: [A, B]
phases:
  - name: Main
    body:
      - send:
          from: A
          to: B
          message: M
          fields:
            - name: x
              type: {prim: float128}
`,
			want: "unknown primitive",
		},
		{
			name: "empty statement",
			doc: `
protocol: P
roles: [A, B]
phases:
  - name: Main
    body:
      - {}
`,
			want: "no recognized form",
		},
		{
			name: "type without body",
			doc: `
protocol: P
roles: [A]
types:
  - name: Empty
phases: []
`,
			want: "no struct, enum, or alias",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.doc))
			if err == nil {
				t.Fatal("Decode() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, want substring %q", err, tc.want)
			}
		})
	}
}
