package icons

import (
	"fmt"
	"strconv"

	"github.com/fogleman/gg"

	"github.com/hubastard/netcanvas/engine/errors"
	"github.com/hubastard/netcanvas/engine/geometry"
)

// Op is one absolute path operation.
type Op struct {
	Kind byte // 'M', 'L', 'C', 'Q' or 'Z'
	Pts  []geometry.Point
}

// Path is a parsed outline in icon units.
type Path []Op

// ParsePath converts SVG path data to absolute operations. Supported commands
// are M L H V C S Q T Z in both absolute and relative form; arcs are rejected.
func ParsePath(d string) (Path, error) {
	p := &pathParser{src: d}
	return p.parse()
}

type pathParser struct {
	src  string
	pos  int
	cur  geometry.Point
	open geometry.Point // start of current subpath
	ctrl geometry.Point // last control point, for S and T
	last byte
	out  Path
}

func (p *pathParser) parse() (Path, error) {
	var cmd byte
	for {
		p.skipSep()
		if p.pos >= len(p.src) {
			break
		}
		c := p.src[p.pos]
		if isCommand(c) {
			cmd = c
			p.pos++
		} else if cmd == 0 {
			return nil, p.errorf("path must start with a command")
		}
		if err := p.command(cmd); err != nil {
			return nil, err
		}
		// Extra coordinates after M are implicit L.
		switch cmd {
		case 'M':
			cmd = 'L'
		case 'm':
			cmd = 'l'
		case 'Z', 'z':
			cmd = 0
		}
	}
	return p.out, nil
}

func (p *pathParser) command(cmd byte) error {
	rel := cmd >= 'a'
	upper := cmd &^ 0x20
	base := geometry.Point{}
	if rel {
		base = p.cur
	}
	switch upper {
	case 'M', 'L', 'T':
		pt, err := p.point(base)
		if err != nil {
			return err
		}
		switch upper {
		case 'M':
			p.emit('M', pt)
			p.open = pt
		case 'L':
			p.emit('L', pt)
		case 'T':
			c := p.reflect('Q', 'T')
			p.emit('Q', c, pt)
			p.ctrl = c
		}
		p.cur = pt
	case 'H', 'V':
		v, err := p.number()
		if err != nil {
			return err
		}
		pt := p.cur
		if upper == 'H' {
			pt.X = v
			if rel {
				pt.X += p.cur.X
			}
		} else {
			pt.Y = v
			if rel {
				pt.Y += p.cur.Y
			}
		}
		p.emit('L', pt)
		p.cur = pt
	case 'C', 'S':
		var c1 geometry.Point
		if upper == 'S' {
			c1 = p.reflect('C', 'S')
		} else {
			pt, err := p.point(base)
			if err != nil {
				return err
			}
			c1 = pt
		}
		c2, err := p.point(base)
		if err != nil {
			return err
		}
		end, err := p.point(base)
		if err != nil {
			return err
		}
		p.emit('C', c1, c2, end)
		p.ctrl, p.cur = c2, end
	case 'Q':
		c, err := p.point(base)
		if err != nil {
			return err
		}
		end, err := p.point(base)
		if err != nil {
			return err
		}
		p.emit('Q', c, end)
		p.ctrl, p.cur = c, end
	case 'Z':
		p.emit('Z')
		p.cur = p.open
	default:
		return p.errorf("unsupported path command %q", cmd)
	}
	p.last = upper
	return nil
}

// reflect mirrors the previous control point when the previous command was a
// matching curve, else returns the current point.
func (p *pathParser) reflect(kinds ...byte) geometry.Point {
	for _, k := range kinds {
		if p.last == k {
			return p.cur.Add(p.cur.Sub(p.ctrl))
		}
	}
	return p.cur
}

func (p *pathParser) emit(kind byte, pts ...geometry.Point) {
	p.out = append(p.out, Op{Kind: kind, Pts: pts})
}

func (p *pathParser) point(base geometry.Point) (geometry.Point, error) {
	x, err := p.number()
	if err != nil {
		return geometry.Point{}, err
	}
	y, err := p.number()
	if err != nil {
		return geometry.Point{}, err
	}
	return geometry.Point{X: base.X + x, Y: base.Y + y}, nil
}

func (p *pathParser) number() (float64, error) {
	p.skipSep()
	start := p.pos
	if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
		p.pos++
	}
	dot, exp := false, false
scan:
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c >= '0' && c <= '9':
		case c == '.' && !dot && !exp:
			dot = true
		case (c == 'e' || c == 'E') && !exp:
			exp = true
			if p.pos+1 < len(p.src) && (p.src[p.pos+1] == '-' || p.src[p.pos+1] == '+') {
				p.pos++
			}
		default:
			break scan
		}
		p.pos++
	}
	if start == p.pos {
		return 0, p.errorf("expected number")
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, p.errorf("bad number %q", p.src[start:p.pos])
	}
	return v, nil
}

func (p *pathParser) skipSep() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', ',':
			p.pos++
		default:
			return
		}
	}
}

func (p *pathParser) errorf(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidInput, "icon path at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func isCommand(c byte) bool {
	switch c &^ 0x20 {
	case 'M', 'L', 'H', 'V', 'C', 'S', 'Q', 'T', 'A', 'Z':
		return true
	}
	return false
}

// Bounds is the bounding box of every point of the path, control points
// included.
func (p Path) Bounds() geometry.Rect {
	first := true
	var minX, minY, maxX, maxY float64
	for _, op := range p {
		for _, pt := range op.Pts {
			if first {
				minX, minY, maxX, maxY = pt.X, pt.Y, pt.X, pt.Y
				first = false
				continue
			}
			minX, maxX = min(minX, pt.X), max(maxX, pt.X)
			minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
		}
	}
	return geometry.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Append adds the path to ctx, mapping icon units through scale then offset.
func (p Path) Append(ctx *gg.Context, scale float64, offset geometry.Point) {
	tf := func(pt geometry.Point) (float64, float64) {
		return pt.X*scale + offset.X, pt.Y*scale + offset.Y
	}
	for _, op := range p {
		switch op.Kind {
		case 'M':
			x, y := tf(op.Pts[0])
			ctx.MoveTo(x, y)
		case 'L':
			x, y := tf(op.Pts[0])
			ctx.LineTo(x, y)
		case 'Q':
			x1, y1 := tf(op.Pts[0])
			x2, y2 := tf(op.Pts[1])
			ctx.QuadraticTo(x1, y1, x2, y2)
		case 'C':
			x1, y1 := tf(op.Pts[0])
			x2, y2 := tf(op.Pts[1])
			x3, y3 := tf(op.Pts[2])
			ctx.CubicTo(x1, y1, x2, y2, x3, y3)
		case 'Z':
			ctx.ClosePath()
		}
	}
}
