package filter

import "fmt"

// parser is a recursive-descent parser over the token list:
//
//	or  := and ('or' and)*
//	and := not ('and' not)*
//	not := 'not' not | primary
//	primary := CMP | '(' or ')'
type parser struct {
	toks []token
	pos  int
}

func parse(toks []token) (node, error) {
	p := &parser{toks: toks}
	n, err := p.or()
	if err != nil {
		return nil, err
	}
	if t := p.cur(); t.kind != tokEOF {
		return nil, &SyntaxError{Pos: t.pos, Msg: "Extra input after end of expression"}
	}
	return n, nil
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) accept(kind tokenKind) (token, bool) {
	t := p.cur()
	if t.kind != kind {
		return token{}, false
	}
	p.pos++
	return t, true
}

func (p *parser) expect(kind tokenKind) error {
	if _, ok := p.accept(kind); !ok {
		t := p.cur()
		return &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("Expected %s, got %s", kind, t.kind)}
	}
	return nil
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(tokOr); !ok {
			return left, nil
		}
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = &orNode{left, right}
	}
}

func (p *parser) and() (node, error) {
	left, err := p.not()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(tokAnd); !ok {
			return left, nil
		}
		right, err := p.not()
		if err != nil {
			return nil, err
		}
		left = &andNode{left, right}
	}
}

func (p *parser) not() (node, error) {
	if _, ok := p.accept(tokNot); ok {
		child, err := p.not()
		if err != nil {
			return nil, err
		}
		return &notNode{child}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	if t, ok := p.accept(tokCmp); ok {
		return &cmpNode{path: t.path, eq: t.eq, re: t.re}, nil
	}
	if _, ok := p.accept(tokLParen); ok {
		n, err := p.or()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return n, nil
	}
	t := p.cur()
	return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("Unexpected token %s", t.kind)}
}
