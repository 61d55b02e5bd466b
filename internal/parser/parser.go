// Package parser implements a hand-written recursive-descent parser over
// internal/lexer's token stream, producing ast.Raw wrapped in ast.RSrcPos
// at every node and accumulating errors rather than stopping at the first
// one, the way the teacher's parser does.
package parser

import (
	"fmt"

	"github.com/ailang-lang/telescope/internal/ast"
	"github.com/ailang-lang/telescope/internal/lexer"
	"github.com/ailang-lang/telescope/internal/value"
)

// Error is a single parse error tied to a token.
type Error struct {
	Message string
	Tok     lexer.Token
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (near %q)", e.Tok.Position(), e.Message, e.Tok.Literal)
}

// Parser turns a token stream into ast.Raw.
type Parser struct {
	l    *lexer.Lexer
	file string

	curToken  lexer.Token
	peekToken lexer.Token

	errors []error
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer, file string) *Parser {
	p := &Parser{l: l, file: file}
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns every error accumulated during parsing.
func (p *Parser) Errors() []error { return p.errors }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &Error{Message: msg, Tok: p.curToken})
}

func (p *Parser) expect(tt lexer.TokenType) bool {
	if p.curToken.Type != tt {
		p.addError(fmt.Sprintf("expected %s", tt))
		return false
	}
	p.nextToken()
	return true
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{Line: p.curToken.Line, Column: p.curToken.Column, File: p.file}
}

func wrap(start ast.Pos, end ast.Pos, r ast.Raw) ast.Raw {
	return ast.RSrcPos{Span: ast.Span{Start: start, End: end}, Raw: r}
}

// checkpoint is a snapshot of lexer + lookahead state, letting the parser
// try the parenthesized-binder-group reading of '(' and backtrack to the
// grouped-expression reading if it doesn't pan out.
type checkpoint struct {
	lex       lexer.Lexer
	cur, peek lexer.Token
}

func (p *Parser) mark() checkpoint {
	return checkpoint{lex: *p.l, cur: p.curToken, peek: p.peekToken}
}

func (p *Parser) reset(c checkpoint) {
	*p.l = c.lex
	p.curToken = c.cur
	p.peekToken = c.peek
}

// ParseTerm parses a full top-level term: an expression, optionally
// ascribed with ': Expr'.
func (p *Parser) ParseTerm() (ast.Raw, error) {
	start := p.pos()
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type == lexer.COLON {
		p.nextToken()
		ty, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		// Ascription has no dedicated Raw node; it is encoded as a checked
		// let whose body just hands the value straight back, so Check
		// sees e against ty.
		e = wrap(start, p.pos(), ast.RLet{Name: "_ascribed", Ann: ty, Val: e, Body: ast.RVar{Name: "_ascribed"}})
	}
	if p.curToken.Type != lexer.EOF {
		p.addError("unexpected trailing input")
	}
	if len(p.errors) > 0 {
		return e, p.errors[0]
	}
	return e, nil
}

// parseExpr parses lambdas, lets, and falls through to arrow-level.
func (p *Parser) parseExpr() (ast.Raw, error) {
	start := p.pos()
	switch p.curToken.Type {
	case lexer.BACKSLASH:
		return p.parseLambda(start)
	case lexer.LET:
		return p.parseLet(start)
	default:
		return p.parseArrow()
	}
}

func (p *Parser) parseLambda(start ast.Pos) (ast.Raw, error) {
	p.nextToken() // consume '\'

	type binder struct {
		name string
		icit value.Icit
		ann  ast.Raw
	}
	var binders []binder
	for p.curToken.Type == lexer.IDENT || p.curToken.Type == lexer.UNDERSCORE || p.curToken.Type == lexer.LBRACE || p.curToken.Type == lexer.LPAREN {
		name, icit, ann, err := p.parseBinder()
		if err != nil {
			return nil, err
		}
		binders = append(binders, binder{name, icit, ann})
	}
	if len(binders) == 0 {
		p.addError("expected at least one binder after '\\'")
	}
	if !p.expect(lexer.DOT) {
		return nil, p.errors[len(p.errors)-1]
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	result := body
	for i := len(binders) - 1; i >= 0; i-- {
		b := binders[i]
		result = ast.RLam{Name: b.name, Icit: b.icit, Ann: b.ann, Body: result}
	}
	return wrap(start, p.pos(), result), nil
}

// parseBinder parses one lambda binder: Name | '{' Name '}' |
// '(' Name ':' Expr ')' | '{' Name ':' Expr '}'.
func (p *Parser) parseBinder() (string, value.Icit, ast.Raw, error) {
	switch p.curToken.Type {
	case lexer.IDENT:
		name := p.curToken.Literal
		p.nextToken()
		return name, value.Expl, nil, nil
	case lexer.UNDERSCORE:
		p.nextToken()
		return "_", value.Expl, nil, nil
	case lexer.LBRACE:
		p.nextToken()
		if p.curToken.Type != lexer.IDENT {
			p.addError("expected a name in implicit binder")
			return "", value.Impl, nil, p.errors[len(p.errors)-1]
		}
		name := p.curToken.Literal
		p.nextToken()
		var ann ast.Raw
		if p.curToken.Type == lexer.COLON {
			p.nextToken()
			a, err := p.parseExpr()
			if err != nil {
				return "", value.Impl, nil, err
			}
			ann = a
		}
		p.expect(lexer.RBRACE)
		return name, value.Impl, ann, nil
	case lexer.LPAREN:
		p.nextToken()
		if p.curToken.Type != lexer.IDENT {
			p.addError("expected a name in explicit annotated binder")
			return "", value.Expl, nil, p.errors[len(p.errors)-1]
		}
		name := p.curToken.Literal
		p.nextToken()
		p.expect(lexer.COLON)
		ann, err := p.parseExpr()
		if err != nil {
			return "", value.Expl, nil, err
		}
		p.expect(lexer.RPAREN)
		return name, value.Expl, ann, nil
	default:
		p.addError("expected a binder")
		return "", value.Expl, nil, p.errors[len(p.errors)-1]
	}
}

func (p *Parser) parseLet(start ast.Pos) (ast.Raw, error) {
	p.nextToken() // consume 'let'
	if p.curToken.Type != lexer.IDENT {
		p.addError("expected a name after 'let'")
		return nil, p.errors[len(p.errors)-1]
	}
	name := p.curToken.Literal
	p.nextToken()

	var ann ast.Raw
	if p.curToken.Type == lexer.COLON {
		p.nextToken()
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ann = a
	}
	if !p.expect(lexer.ASSIGN) {
		return nil, p.errors[len(p.errors)-1]
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.expect(lexer.IN) {
		return nil, p.errors[len(p.errors)-1]
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return wrap(start, p.pos(), ast.RLet{Name: name, Ann: ann, Val: val, Body: body}), nil
}

// parseArrow parses an application-level term followed by zero or more
// right-associative '->' continuations.
func (p *Parser) parseArrow() (ast.Raw, error) {
	start := p.pos()
	left, err := p.parseApp()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != lexer.ARROW {
		return left, nil
	}
	p.nextToken()
	right, err := p.parseArrow()
	if err != nil {
		return nil, err
	}
	return wrap(start, p.pos(), ast.RPi{Name: "_", Icit: value.Expl, Dom: left, Cod: right}), nil
}

// parseApp parses a chain of application: Atom (Atom | '{' Expr '}')*.
func (p *Parser) parseApp() (ast.Raw, error) {
	start := p.pos()
	fn, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.startsArg() {
		if p.curToken.Type == lexer.LBRACE {
			p.nextToken()
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if !p.expect(lexer.RBRACE) {
				return nil, p.errors[len(p.errors)-1]
			}
			fn = wrap(start, p.pos(), ast.RApp{Icit: value.Impl, Func: fn, Arg: arg})
			continue
		}
		arg, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		fn = wrap(start, p.pos(), ast.RApp{Icit: value.Expl, Func: fn, Arg: arg})
	}
	return fn, nil
}

// startsArg reports whether curToken can start another application
// argument (an atom, or an implicit-argument brace group).
func (p *Parser) startsArg() bool {
	switch p.curToken.Type {
	case lexer.IDENT, lexer.U, lexer.UNDERSCORE, lexer.LPAREN, lexer.LBRACE:
		return true
	default:
		return false
	}
}

// parseAtom parses a single atom: 'U', '_', Name, '(' ... ')', or the two
// implicit-Pi sugar forms beginning with '{' (only reachable as the first
// atom of an application chain, since a bare '{ Expr }' only makes sense
// as a continuation handled by parseApp).
func (p *Parser) parseAtom() (ast.Raw, error) {
	start := p.pos()
	switch p.curToken.Type {
	case lexer.U:
		p.nextToken()
		return wrap(start, p.pos(), ast.RU{}), nil
	case lexer.UNDERSCORE:
		p.nextToken()
		return wrap(start, p.pos(), ast.RHole{}), nil
	case lexer.IDENT:
		name := p.curToken.Literal
		p.nextToken()
		return wrap(start, p.pos(), ast.RVar{Name: name}), nil
	case lexer.LPAREN:
		return p.parseParenOrPi(start)
	case lexer.LBRACE:
		return p.parseImplicitPiSugar(start)
	default:
		p.addError("expected a term")
		return nil, p.errors[len(p.errors)-1]
	}
}

// parseParenOrPi disambiguates '(' Name+ ':' Expr ')' '->' Expr from a
// parenthesized grouped expression '(' Expr ')' by speculatively parsing
// the binder-group reading and backtracking if it doesn't fit.
func (p *Parser) parseParenOrPi(start ast.Pos) (ast.Raw, error) {
	chk := p.mark()

	p.nextToken() // consume '('
	var names []string
	for p.curToken.Type == lexer.IDENT {
		names = append(names, p.curToken.Literal)
		p.nextToken()
	}
	if len(names) > 0 && p.curToken.Type == lexer.COLON {
		p.nextToken()
		dom, err := p.parseExpr()
		if err == nil && p.curToken.Type == lexer.RPAREN {
			p.nextToken()
			if p.curToken.Type == lexer.ARROW {
				p.nextToken()
				cod, err := p.parseArrow()
				if err == nil {
					result := cod
					for i := len(names) - 1; i >= 0; i-- {
						result = ast.RPi{Name: names[i], Icit: value.Expl, Dom: dom, Cod: result}
					}
					return wrap(start, p.pos(), result), nil
				}
			}
		}
	}

	p.reset(chk)
	p.nextToken() // consume '('
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.expect(lexer.RPAREN) {
		return nil, p.errors[len(p.errors)-1]
	}
	return e, nil
}

// parseImplicitPiSugar parses '{' Name+ ':' Expr '}' '->' Expr or
// '{' Name+ '}' '->' Expr, each producing a chain of implicit Pi binders
// sharing the written domain (or, in the untyped form, each getting its
// own fresh-meta domain via ast.RHole).
func (p *Parser) parseImplicitPiSugar(start ast.Pos) (ast.Raw, error) {
	p.nextToken() // consume '{'
	var names []string
	for p.curToken.Type == lexer.IDENT {
		names = append(names, p.curToken.Literal)
		p.nextToken()
	}
	if len(names) == 0 {
		p.addError("expected at least one name in implicit binder group")
		return nil, p.errors[len(p.errors)-1]
	}

	var dom ast.Raw = ast.RHole{}
	if p.curToken.Type == lexer.COLON {
		p.nextToken()
		d, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		dom = d
	}
	if !p.expect(lexer.RBRACE) {
		return nil, p.errors[len(p.errors)-1]
	}
	if !p.expect(lexer.ARROW) {
		return nil, p.errors[len(p.errors)-1]
	}
	cod, err := p.parseArrow()
	if err != nil {
		return nil, err
	}
	result := cod
	for i := len(names) - 1; i >= 0; i-- {
		result = ast.RPi{Name: names[i], Icit: value.Impl, Dom: dom, Cod: result}
	}
	return wrap(start, p.pos(), result), nil
}

// Parse lexes and parses a complete term from src, returning the first
// accumulated error (if any) alongside whatever partial term was built.
func Parse(src, file string) (ast.Raw, error) {
	l := lexer.New(string(lexer.Normalize([]byte(src))), file)
	p := New(l, file)
	return p.ParseTerm()
}

// TopLevelBinding is a 'let Name (: Ann)? = Val' with no trailing 'in',
// the form an interactive session persists across lines.
type TopLevelBinding struct {
	Name string
	Ann  ast.Raw // nil if unannotated
	Val  ast.Raw
}

// ParseTopLevelBinding parses a persistent REPL binding.
func (p *Parser) ParseTopLevelBinding() (*TopLevelBinding, error) {
	if !p.expect(lexer.LET) {
		return nil, p.errors[len(p.errors)-1]
	}
	if p.curToken.Type != lexer.IDENT {
		p.addError("expected a name after 'let'")
		return nil, p.errors[len(p.errors)-1]
	}
	name := p.curToken.Literal
	p.nextToken()

	var ann ast.Raw
	if p.curToken.Type == lexer.COLON {
		p.nextToken()
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ann = a
	}
	if !p.expect(lexer.ASSIGN) {
		return nil, p.errors[len(p.errors)-1]
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != lexer.EOF {
		p.addError("unexpected trailing input after binding")
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return &TopLevelBinding{Name: name, Ann: ann, Val: val}, nil
}

// ParseTopLevelBindingSrc lexes and parses src as a TopLevelBinding.
func ParseTopLevelBindingSrc(src, file string) (*TopLevelBinding, error) {
	l := lexer.New(string(lexer.Normalize([]byte(src))), file)
	p := New(l, file)
	return p.ParseTopLevelBinding()
}

// LooksLikeTopLevelBinding reports whether src starts with 'let' and has
// no top-level 'in', the heuristic an interactive session uses to choose
// between ParseTopLevelBindingSrc and Parse.
func LooksLikeTopLevelBinding(src string) bool {
	l := lexer.New(string(lexer.Normalize([]byte(src))), "<repl>")
	tok := l.NextToken()
	if tok.Type != lexer.LET {
		return false
	}
	depth := 0
	letDepth := 0
	for {
		tok = l.NextToken()
		if tok.Type == lexer.EOF {
			return true
		}
		switch tok.Type {
		case lexer.LPAREN, lexer.LBRACE:
			depth++
		case lexer.RPAREN, lexer.RBRACE:
			depth--
		case lexer.LET:
			if depth == 0 {
				letDepth++
			}
		case lexer.IN:
			if depth == 0 {
				if letDepth == 0 {
					return false
				}
				letDepth--
			}
		}
	}
}
