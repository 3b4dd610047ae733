package segment

import "sem-view/pkg/geometry"

// edgeKey addresses a crossing point in doubled pixel coordinates. Crossings
// of a binary raster always sit halfway between two pixel centers, so
// doubling keeps them exact.
type edgeKey struct{ x, y int }

func (k edgeKey) point() geometry.Point2D {
	return geometry.Point2D{X: float64(k.x) / 2, Y: float64(k.y) / 2}
}

// IsoContours traces the 0.5 iso-lines of a row-major binary raster, where
// any non-zero byte counts as foreground, by marching squares over every
// 2x2 block of pixel centers. Diagonal foreground pairs in a block are kept
// apart. A closed contour repeats its first point at the end; contours that
// run off the raster edge stay open.
func IsoContours(width, height int, raster []uint8) [][]geometry.Point2D {
	if width < 2 || height < 2 || len(raster) != width*height {
		return nil
	}
	high := func(x, y int) bool { return raster[y*width+x] != 0 }

	adj := make(map[edgeKey][]edgeKey)
	var order []edgeKey
	link := func(a, b edgeKey) {
		if _, seen := adj[a]; !seen {
			order = append(order, a)
		}
		if _, seen := adj[b]; !seen {
			order = append(order, b)
		}
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}

	for y := 0; y < height-1; y++ {
		for x := 0; x < width-1; x++ {
			ul, ur := high(x, y), high(x+1, y)
			ll, lr := high(x, y+1), high(x+1, y+1)

			top := edgeKey{2*x + 1, 2 * y}
			bottom := edgeKey{2*x + 1, 2*y + 2}
			left := edgeKey{2 * x, 2*y + 1}
			right := edgeKey{2*x + 2, 2*y + 1}

			var crossed []edgeKey
			if ul != ur {
				crossed = append(crossed, top)
			}
			if ur != lr {
				crossed = append(crossed, right)
			}
			if ll != lr {
				crossed = append(crossed, bottom)
			}
			if ul != ll {
				crossed = append(crossed, left)
			}

			switch len(crossed) {
			case 2:
				link(crossed[0], crossed[1])
			case 4:
				// Saddle: cut off each foreground corner on its own.
				if ul {
					link(top, left)
					link(bottom, right)
				} else {
					link(top, right)
					link(bottom, left)
				}
			}
		}
	}

	visited := make(map[edgeKey]bool, len(adj))
	walk := func(start edgeKey) []geometry.Point2D {
		path := []geometry.Point2D{start.point()}
		visited[start] = true
		cur := start
		for {
			next, ok := edgeKey{}, false
			for _, n := range adj[cur] {
				if !visited[n] {
					next, ok = n, true
					break
				}
			}
			if !ok {
				break
			}
			visited[next] = true
			path = append(path, next.point())
			cur = next
		}
		if len(path) > 2 {
			for _, n := range adj[cur] {
				if n == start {
					path = append(path, start.point())
					break
				}
			}
		}
		return path
	}

	var contours [][]geometry.Point2D
	// Open contours start at an end so they are traced in one piece.
	for _, k := range order {
		if !visited[k] && len(adj[k]) == 1 {
			contours = append(contours, walk(k))
		}
	}
	for _, k := range order {
		if !visited[k] {
			contours = append(contours, walk(k))
		}
	}
	return contours
}

// largestContour returns the contour with the most points, or nil when
// none has at least three.
func largestContour(contours [][]geometry.Point2D) []geometry.Point2D {
	var best []geometry.Point2D
	for _, c := range contours {
		if len(c) > len(best) {
			best = c
		}
	}
	if len(best) < 3 {
		return nil
	}
	return best
}
