package lexer

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Structural
	TokenPipe   TokenType = iota // |
	TokenLBrace                  // {
	TokenRBrace                  // }
	TokenLParen                  // (
	TokenRParen                  // )
	TokenComma                   // ,
	TokenEquals                  // = (assignment, or equality inside expressions)
	TokenDot                     // .

	// Operators
	TokenPlus  // +
	TokenMinus // -
	TokenStar  // *
	TokenSlash // /
	TokenEq    // ==
	TokenNeq   // !=
	TokenLt    // <
	TokenGt    // >
	TokenLte   // <=
	TokenGte   // >=

	// Keywords / logical
	TokenAnd   // and
	TokenOr    // or
	TokenNot   // not
	TokenIs    // is
	TokenTrue  // true
	TokenFalse // false
	TokenNull  // null

	// Literals
	TokenInt    // integer literal
	TokenFloat  // float literal
	TokenString // "string literal"

	// Identifiers
	TokenIdent         // plain identifier (column name, op name)
	TokenBacktickIdent // `identifier with spaces`
	TokenBracketIdent  // [identifier with spaces]

	// End
	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenPipe: "|", TokenLBrace: "{", TokenRBrace: "}", TokenLParen: "(", TokenRParen: ")",
	TokenComma: ",", TokenEquals: "=", TokenDot: ".",
	TokenPlus: "+", TokenMinus: "-", TokenStar: "*", TokenSlash: "/",
	TokenEq: "==", TokenNeq: "!=", TokenLt: "<", TokenGt: ">", TokenLte: "<=", TokenGte: ">=",
	TokenAnd: "and", TokenOr: "or", TokenNot: "not", TokenIs: "is",
	TokenTrue: "true", TokenFalse: "false", TokenNull: "null",
	TokenInt: "INT", TokenFloat: "FLOAT", TokenString: "STRING",
	TokenIdent: "IDENT", TokenBacktickIdent: "BACKTICK_IDENT", TokenBracketIdent: "BRACKET_IDENT",
	TokenEOF: "EOF",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

// Token represents a single lexical token.
type Token struct {
	Type TokenType
	Val  string
	Pos  int // rune offset in the input
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Val, t.Pos)
}

var keywords = map[string]TokenType{
	"and":   TokenAnd,
	"or":    TokenOr,
	"not":   TokenNot,
	"is":    TokenIs,
	"true":  TokenTrue,
	"false": TokenFalse,
	"null":  TokenNull,
}

// IsIdent reports whether the token can name a column.
func (t Token) IsIdent() bool {
	return t.Type == TokenIdent || t.Type == TokenBacktickIdent || t.Type == TokenBracketIdent
}

// Lex tokenizes a query or expression. The result always ends with a
// TokenEOF.
func Lex(input string) ([]Token, error) {
	s := &scanner{src: []rune(input)}
	for s.skip() {
		if err := s.scan(); err != nil {
			return nil, err
		}
	}
	s.emit(TokenEOF, "", len(s.src))
	return s.tokens, nil
}

// Two-rune operators are matched before single runes.
var pairs = map[string]TokenType{
	"||": TokenOr,
	"&&": TokenAnd,
	"==": TokenEq,
	"!=": TokenNeq,
	"<>": TokenNeq,
	"<=": TokenLte,
	">=": TokenGte,
}

var singles = map[rune]TokenType{
	'|': TokenPipe,
	'{': TokenLBrace,
	'}': TokenRBrace,
	'(': TokenLParen,
	')': TokenRParen,
	',': TokenComma,
	'.': TokenDot,
	'=': TokenEquals,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'<': TokenLt,
	'>': TokenGt,
}

type scanner struct {
	src    []rune
	pos    int
	tokens []Token
}

func (s *scanner) emit(tt TokenType, val string, pos int) {
	s.tokens = append(s.tokens, Token{tt, val, pos})
}

// at returns the rune k places ahead, or 0 past the end.
func (s *scanner) at(k int) rune {
	if s.pos+k < len(s.src) {
		return s.src[s.pos+k]
	}
	return 0
}

// skip moves past whitespace and // comments and reports whether input
// remains.
func (s *scanner) skip() bool {
	for s.pos < len(s.src) {
		switch {
		case unicode.IsSpace(s.at(0)):
			s.pos++
		case s.at(0) == '/' && s.at(1) == '/':
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
		default:
			return true
		}
	}
	return false
}

func (s *scanner) scan() error {
	start := s.pos
	ch := s.at(0)
	switch {
	case ch == '"' || ch == '\'':
		return s.quoted(ch)
	case ch == '`':
		return s.enclosed('`', TokenBacktickIdent, "backtick identifier")
	case ch == '[':
		return s.enclosed(']', TokenBracketIdent, "bracketed column")
	case unicode.IsDigit(ch), ch == '-' && unicode.IsDigit(s.at(1)) && s.signAllowed():
		s.number()
		return nil
	case isIdentStart(ch):
		s.ident()
		return nil
	}

	if s.pos+1 < len(s.src) {
		op := string(s.src[start : start+2])
		if tt, ok := pairs[op]; ok {
			s.emit(tt, op, start)
			s.pos += 2
			return nil
		}
	}
	if tt, ok := singles[ch]; ok {
		s.emit(tt, string(ch), start)
		s.pos++
		return nil
	}
	switch ch {
	case '&':
		return fmt.Errorf("unexpected character '&' at position %d (did you mean '&&'?)", start)
	case '!':
		return fmt.Errorf("unexpected character '!' at position %d (did you mean '!='?)", start)
	}
	return fmt.Errorf("unexpected character %q at position %d", ch, start)
}

// signAllowed reports whether a '-' before a digit starts a negative number,
// which is the case at the start and after an operator or opening token.
func (s *scanner) signAllowed() bool {
	if len(s.tokens) == 0 {
		return true
	}
	switch s.tokens[len(s.tokens)-1].Type {
	case TokenLParen, TokenComma, TokenEquals, TokenPipe, TokenLBrace,
		TokenPlus, TokenMinus, TokenStar, TokenSlash,
		TokenEq, TokenNeq, TokenLt, TokenGt, TokenLte, TokenGte,
		TokenAnd, TokenOr, TokenNot:
		return true
	}
	return false
}

var escapes = map[rune]rune{'"': '"', '\'': '\'', '\\': '\\', 'n': '\n', 't': '\t'}

// quoted scans a string literal. Backslash escapes work in both quote
// styles; inside single quotes a doubled quote is a literal quote.
func (s *scanner) quoted(quote rune) error {
	start := s.pos
	var val []rune
	for s.pos++; s.pos < len(s.src); {
		ch := s.at(0)
		switch {
		case ch == quote && quote == '\'' && s.at(1) == '\'':
			val = append(val, '\'')
			s.pos += 2
		case ch == '\\' && s.pos+1 < len(s.src):
			if r, ok := escapes[s.at(1)]; ok {
				val = append(val, r)
			} else {
				val = append(val, '\\', s.at(1))
			}
			s.pos += 2
		case ch == quote:
			s.pos++
			s.emit(TokenString, string(val), start)
			return nil
		default:
			val = append(val, ch)
			s.pos++
		}
	}
	return fmt.Errorf("unterminated string starting at position %d", start)
}

// enclosed scans an identifier running up to the closing rune.
func (s *scanner) enclosed(closing rune, tt TokenType, what string) error {
	start := s.pos
	for end := start + 1; end < len(s.src); end++ {
		if s.src[end] == closing {
			s.emit(tt, string(s.src[start+1:end]), start)
			s.pos = end + 1
			return nil
		}
	}
	return fmt.Errorf("unterminated %s starting at position %d", what, start)
}

// number scans an optionally signed integer or decimal. A dot followed by
// anything but a digit ends the number, so "2024.csv" stays a path.
func (s *scanner) number() {
	start := s.pos
	if s.at(0) == '-' {
		s.pos++
	}
	s.digits()
	tt := TokenInt
	if s.at(0) == '.' && unicode.IsDigit(s.at(1)) {
		tt = TokenFloat
		s.pos++
		s.digits()
	}
	s.emit(tt, string(s.src[start:s.pos]), start)
}

func (s *scanner) digits() {
	for s.pos < len(s.src) && unicode.IsDigit(s.src[s.pos]) {
		s.pos++
	}
}

func (s *scanner) ident() {
	start := s.pos
	for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
		s.pos++
	}
	val := string(s.src[start:s.pos])
	if tt, ok := keywords[strings.ToLower(val)]; ok {
		s.emit(tt, val, start)
		return
	}
	s.emit(TokenIdent, val, start)
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}
