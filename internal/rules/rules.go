// Package rules wraps the third-party rules engine behind the small surface
// the rest of the repo depends on: position construction from FEN, legal move
// enumeration, apply/undo, terminal predicates and board enumeration. Nothing
// outside this package imports notnil/chess.
package rules

import (
	"strings"

	. "github.com/gambitgo/gambit/internal/helpers"
	"github.com/notnil/chess"
)

type Side int

const (
	White Side = iota
	Black
)

func (s Side) Other() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) Code() string {
	if s == White {
		return "w"
	}
	return "b"
}

func (s Side) String() string {
	if s == White {
		return "white"
	}
	return "black"
}

func SideFromCode(code string) (Side, Error) {
	switch code {
	case "w":
		return White, NilError
	case "b":
		return Black, NilError
	}
	return White, Errorf("unknown side code: %q", code)
}

type PieceKind int

const (
	NoPieceKind PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

func (k PieceKind) Code() string {
	switch k {
	case Pawn:
		return "p"
	case Knight:
		return "n"
	case Bishop:
		return "b"
	case Rook:
		return "r"
	case Queen:
		return "q"
	case King:
		return "k"
	}
	return ""
}

func PieceKindFromCode(code string) PieceKind {
	switch code {
	case "p":
		return Pawn
	case "n":
		return Knight
	case "b":
		return Bishop
	case "r":
		return Rook
	case "q":
		return Queen
	case "k":
		return King
	}
	return NoPieceKind
}

type Piece struct {
	Kind PieceKind
	Side Side
}

// Move is one ply: origin and destination in algebraic square names, the
// promotion piece when the move promotes, and the flags the move generator
// reported.
type Move struct {
	From      string
	To        string
	Promotion PieceKind

	Capture   bool
	EnPassant bool
	Castle    bool
}

func (m Move) String() string {
	return m.From + m.To + m.Promotion.Code()
}

// MoveFromUCI parses long algebraic notation ("e2e4", "e7e8q"). Flags are
// left unset; Apply fills them in from the matching legal move.
func MoveFromUCI(s string) (Move, Error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, Errorf("malformed move: %q", s)
	}
	m := Move{From: s[0:2], To: s[2:4]}
	if len(s) == 5 {
		m.Promotion = PieceKindFromCode(s[4:5])
		if m.Promotion == NoPieceKind {
			return Move{}, Errorf("malformed promotion: %q", s)
		}
	}
	return m, NilError
}

// Confirmation is returned by Apply: the move as executed (flags and
// promotion resolved) plus its standard algebraic notation.
type Confirmation struct {
	Move Move
	SAN  string
}

// Game is a position plus enough history to answer the draw predicates and
// undo applied moves. Positions are immutable; Apply pushes a fresh one and
// Undo pops, so undo exactly restores castling and en-passant state.
type Game struct {
	stack  []*chess.Position
	counts map[string]int
}

func NewGame(fen string) (*Game, Error) {
	pos := &chess.Position{}
	if err := pos.UnmarshalText([]byte(fen)); err != nil {
		return nil, Errorf("invalid position %q: %v", fen, err)
	}

	g := &Game{counts: map[string]int{}}
	g.push(pos)
	return g, NilError
}

func StartingFen() string {
	return "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
}

func (g *Game) push(pos *chess.Position) {
	g.stack = append(g.stack, pos)
	g.counts[repetitionKey(pos)]++
}

// repetitionKey identifies a position for repetition counting: placement,
// side to move, castling rights and en-passant square. The move counters are
// excluded, so a position reached on different clocks still counts as the
// same one.
func repetitionKey(pos *chess.Position) string {
	fields := strings.Fields(pos.String())
	if len(fields) < 4 {
		return pos.String()
	}
	return strings.Join(fields[:4], " ")
}

func (g *Game) current() *chess.Position {
	return g.stack[len(g.stack)-1]
}

func (g *Game) SideToMove() Side {
	return sideFromColor(g.current().Turn())
}

func (g *Game) Fen() string {
	return g.current().String()
}

// LegalMoves enumerates every legal move for the side to move, in the
// generator's order. That order is deterministic for a fixed position and
// the search's tie-break depends on it.
func (g *Game) LegalMoves() []Move {
	return MapSlice(g.current().ValidMoves(), moveFromEngine)
}

func (g *Game) LegalMovesFrom(square string) []Move {
	return FilterSlice(g.LegalMoves(), func(m Move) bool {
		return m.From == square
	})
}

// Apply executes a move described by origin/destination/promotion. The move
// must match a legal move in the current position; a pawn reaching the last
// rank with no promotion given promotes to a queen.
func (g *Game) Apply(m Move) (Confirmation, Error) {
	pos := g.current()

	var matched *chess.Move
	for _, candidate := range pos.ValidMoves() {
		if candidate.S1().String() != m.From || candidate.S2().String() != m.To {
			continue
		}
		promo := pieceKindFromEngine(candidate.Promo())
		if promo == m.Promotion || (m.Promotion == NoPieceKind && promo == Queen) {
			matched = candidate
			break
		}
	}
	if matched == nil {
		return Confirmation{}, Errorf("illegal move %v in %v", m, g.Fen())
	}

	san := chess.AlgebraicNotation{}.Encode(pos, matched)
	g.push(pos.Update(matched))

	return Confirmation{Move: moveFromEngine(matched), SAN: san}, NilError
}

// Undo reverts the most recently applied move.
func (g *Game) Undo() Error {
	if len(g.stack) <= 1 {
		return Errorf("nothing to undo")
	}
	popped := g.current()
	g.stack = g.stack[:len(g.stack)-1]

	key := repetitionKey(popped)
	g.counts[key]--
	if g.counts[key] <= 0 {
		delete(g.counts, key)
	}
	return NilError
}

func (g *Game) IsCheckmate() bool {
	return g.current().Status() == chess.Checkmate
}

func (g *Game) IsStalemate() bool {
	return g.current().Status() == chess.Stalemate
}

// IsInCheck reports whether the side to move's king is attacked. The rules
// engine keeps this predicate internal, so the attack scan is done here over
// the board it exposes.
func (g *Game) IsInCheck() bool {
	pos := g.current()
	board := pos.Board()

	king := chess.Square(0)
	found := false
	for square, piece := range board.SquareMap() {
		if piece.Type() == chess.King && piece.Color() == pos.Turn() {
			king = square
			found = true
			break
		}
	}
	if !found {
		return false
	}
	return squareAttacked(board, king, pos.Turn().Other())
}

// IsDraw covers stalemate, threefold repetition, the fifty-move rule and
// insufficient material.
func (g *Game) IsDraw() bool {
	if g.IsStalemate() {
		return true
	}
	if g.counts[repetitionKey(g.current())] >= 3 {
		return true
	}
	if g.current().HalfMoveClock() >= 100 {
		return true
	}
	return g.insufficientMaterial()
}

func (g *Game) IsGameOver() bool {
	return g.IsCheckmate() || g.IsDraw()
}

// insufficientMaterial detects K vs K, K+B vs K, K+N vs K and K+B vs K+B
// with both bishops on the same square color.
func (g *Game) insufficientMaterial() bool {
	minorSquares := []chess.Square{}
	bishopsOnly := true

	for square, piece := range g.current().Board().SquareMap() {
		switch piece.Type() {
		case chess.King:
		case chess.Bishop:
			minorSquares = append(minorSquares, square)
		case chess.Knight:
			bishopsOnly = false
			minorSquares = append(minorSquares, square)
		default:
			return false
		}
	}

	switch len(minorSquares) {
	case 0:
		return true
	case 1:
		return true
	case 2:
		return bishopsOnly && squareColor(minorSquares[0]) == squareColor(minorSquares[1])
	}
	return false
}

// Board enumerates the 8x8 grid in FEN order: index [0][0] is a8, [7][7]
// is h1.
func (g *Game) Board() [8][8]Optional[Piece] {
	grid := [8][8]Optional[Piece]{}
	for square, piece := range g.current().Board().SquareMap() {
		if piece == chess.NoPiece {
			continue
		}
		file := int(square.File())
		rank := int(square.Rank())
		grid[7-rank][file] = Some(Piece{
			Kind: pieceKindFromEngine(piece.Type()),
			Side: sideFromColor(piece.Color()),
		})
	}
	return grid
}

// squareAttacked reports whether any piece of the given color attacks the
// target square.
func squareAttacked(board *chess.Board, target chess.Square, by chess.Color) bool {
	tf := int(target.File())
	tr := int(target.Rank())

	attacks := func(file, rank int, kind chess.PieceType) bool {
		p := pieceAt(board, file, rank)
		return p != chess.NoPiece && p.Color() == by && p.Type() == kind
	}

	// Pawns attack toward the opposing side.
	pawnRank := tr - 1
	if by == chess.Black {
		pawnRank = tr + 1
	}
	if attacks(tf-1, pawnRank, chess.Pawn) || attacks(tf+1, pawnRank, chess.Pawn) {
		return true
	}

	for _, d := range [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}} {
		if attacks(tf+d[0], tr+d[1], chess.Knight) {
			return true
		}
	}

	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if (df != 0 || dr != 0) && attacks(tf+df, tr+dr, chess.King) {
				return true
			}
		}
	}

	for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		if rayAttacked(board, tf, tr, d[0], d[1], by, chess.Rook) {
			return true
		}
	}
	for _, d := range [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}} {
		if rayAttacked(board, tf, tr, d[0], d[1], by, chess.Bishop) {
			return true
		}
	}
	return false
}

// rayAttacked walks one direction from (file, rank) and reports whether the
// first piece hit is a slider of the given type, or a queen, of the given
// color.
func rayAttacked(board *chess.Board, file, rank, df, dr int, by chess.Color, slider chess.PieceType) bool {
	for f, r := file+df, rank+dr; f >= 0 && f <= 7 && r >= 0 && r <= 7; f, r = f+df, r+dr {
		p := board.Piece(chess.Square(r*8 + f))
		if p == chess.NoPiece {
			continue
		}
		return p.Color() == by && (p.Type() == slider || p.Type() == chess.Queen)
	}
	return false
}

func pieceAt(board *chess.Board, file, rank int) chess.Piece {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return chess.NoPiece
	}
	return board.Piece(chess.Square(rank*8 + file))
}

func squareColor(sq chess.Square) int {
	return (int(sq.File()) + int(sq.Rank())) % 2
}

func sideFromColor(c chess.Color) Side {
	if c == chess.White {
		return White
	}
	return Black
}

func pieceKindFromEngine(t chess.PieceType) PieceKind {
	switch t {
	case chess.Pawn:
		return Pawn
	case chess.Knight:
		return Knight
	case chess.Bishop:
		return Bishop
	case chess.Rook:
		return Rook
	case chess.Queen:
		return Queen
	case chess.King:
		return King
	}
	return NoPieceKind
}

func moveFromEngine(m *chess.Move) Move {
	return Move{
		From:      m.S1().String(),
		To:        m.S2().String(),
		Promotion: pieceKindFromEngine(m.Promo()),
		Capture:   m.HasTag(chess.Capture),
		EnPassant: m.HasTag(chess.EnPassant),
		Castle:    m.HasTag(chess.KingSideCastle) || m.HasTag(chess.QueenSideCastle),
	}
}
