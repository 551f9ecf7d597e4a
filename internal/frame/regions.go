package frame

// Region is one connected bright region of a binarized frame. Area is the
// 0th image moment (pixel count); SumX and SumY are the 1st moments.
type Region struct {
	Area int
	SumX int64
	SumY int64
}

// Centroid returns the region's center of mass (M10/M00, M01/M00).
func (r Region) Centroid() (cx, cy int) {
	if r.Area == 0 {
		return 0, 0
	}
	return int(r.SumX / int64(r.Area)), int(r.SumY / int64(r.Area))
}

// Threshold binarizes the frame: true where intensity exceeds thresh.
func (f *Frame) Threshold(thresh float64) []bool {
	mask := make([]bool, len(f.Pix))
	for i, p := range f.Pix {
		mask[i] = float64(p) > thresh
	}
	return mask
}

// Components labels the 4-connected regions of a binary mask and returns
// one Region per component, moments accumulated during the fill.
func Components(mask []bool, width, height int) []Region {
	visited := make([]bool, len(mask))
	var regions []Region

	// Reused scratch queue keeps the fill allocation-free across seeds.
	queue := make([]int, 0, 256)

	for seed := range mask {
		if !mask[seed] || visited[seed] {
			continue
		}

		var reg Region
		queue = append(queue[:0], seed)
		visited[seed] = true

		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]

			x, y := idx%width, idx/width
			reg.Area++
			reg.SumX += int64(x)
			reg.SumY += int64(y)

			if x > 0 && mask[idx-1] && !visited[idx-1] {
				visited[idx-1] = true
				queue = append(queue, idx-1)
			}
			if x < width-1 && mask[idx+1] && !visited[idx+1] {
				visited[idx+1] = true
				queue = append(queue, idx+1)
			}
			if y > 0 && mask[idx-width] && !visited[idx-width] {
				visited[idx-width] = true
				queue = append(queue, idx-width)
			}
			if y < height-1 && mask[idx+width] && !visited[idx+width] {
				visited[idx+width] = true
				queue = append(queue, idx+width)
			}
		}

		regions = append(regions, reg)
	}

	return regions
}

// Largest returns the largest region with Area strictly above minArea, and
// whether one exists.
func Largest(regions []Region, minArea int) (Region, bool) {
	best := Region{}
	found := false
	for _, r := range regions {
		if r.Area > minArea && r.Area > best.Area {
			best = r
			found = true
		}
	}
	return best, found
}
