package render

import "testing"

func TestNode_HTML_Escaping(t *testing.T) {
	node := Element("p", Text(`<script>alert("x")</script>`))
	got := node.HTML()
	want := `<p>&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;</p>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestNode_HTML_AttrOrderAndEscaping(t *testing.T) {
	node := Element("a", Text("link")).
		WithAttr("href", `https://example.com/?a=1&b="2"`).
		WithAttr("rel", "noopener")
	got := node.HTML()
	want := `<a href="https://example.com/?a=1&amp;b=&#34;2&#34;" rel="noopener">link</a>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestNode_HTML_Void(t *testing.T) {
	node := &Node{Tag: "hr", Void: true}
	if got := node.HTML(); got != "<hr/>" {
		t.Errorf("expected <hr/>, got %s", got)
	}
}

func TestNode_HTML_Nested(t *testing.T) {
	node := Element("div", Element("p", Text("a")), Element("p", Text("b")))
	if got := node.HTML(); got != "<div><p>a</p><p>b</p></div>" {
		t.Errorf("unexpected output %s", got)
	}
}
