package tools

import (
	"image"
	"image/color"

	"segmate/internal/mask"
	"segmate/pkg/colorutil"

	"gocv.io/x/gocv"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// grayToMat converts a binary or grayscale image to a single-channel Mat.
func grayToMat(g *image.Gray) gocv.Mat {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8U)
	for y := 0; y < h; y++ {
		row := g.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			mat.SetUCharAt(y, x, g.Pix[row+x])
		}
	}
	return mat
}

// matToGray converts a single-channel 8-bit Mat to a binary mask. Any nonzero
// value becomes mask.On.
func matToGray(mat gocv.Mat) *image.Gray {
	h, w := mat.Rows(), mat.Cols()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mat.GetUCharAt(y, x) != 0 {
				out.Pix[y*out.Stride+x] = mask.On
			}
		}
	}
	return out
}

// rgbaToBGR converts an image layer to a 3-channel BGR Mat, the layout
// OpenCV expects for color input.
func rgbaToBGR(img *image.RGBA) gocv.Mat {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			mat.SetUCharAt(y, x*3+0, img.Pix[i+2])
			mat.SetUCharAt(y, x*3+1, img.Pix[i+1])
			mat.SetUCharAt(y, x*3+2, img.Pix[i])
		}
	}
	return mat
}

// maskMat extracts the binary mask of a layer canvas as a Mat.
func maskMat(canvas *image.RGBA) gocv.Mat {
	return grayToMat(mask.Binary(canvas))
}

// grayMat returns the luminance of an image layer as a Mat.
func grayMat(img *image.RGBA) gocv.Mat {
	return grayToMat(mask.Grayscale(img))
}

// colored renders a mask Mat as a layer canvas in c.
func colored(mat gocv.Mat, c colorutil.RGB) *image.RGBA {
	return mask.Color(matToGray(mat), c)
}

// crossKernel is the 3x3 cross used by dilate, erode and skeletonize.
func crossKernel() gocv.Mat {
	return gocv.GetStructuringElement(gocv.MorphCross, image.Point{3, 3})
}

// fillHoles fills every external contour of m, closing interior holes.
func fillHoles(m gocv.Mat) gocv.Mat {
	filled := gocv.NewMatWithSize(m.Rows(), m.Cols(), gocv.MatTypeCV8U)
	contours := gocv.FindContours(m, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	for i := 0; i < contours.Size(); i++ {
		gocv.DrawContours(&filled, contours, i, white, -1)
	}
	return filled
}

func dilate(m gocv.Mat) gocv.Mat {
	kernel := crossKernel()
	defer kernel.Close()

	out := gocv.NewMat()
	gocv.Dilate(m, &out, kernel)
	return out
}

func erode(m gocv.Mat) gocv.Mat {
	kernel := crossKernel()
	defer kernel.Close()

	out := gocv.NewMat()
	gocv.Erode(m, &out, kernel)
	return out
}

// skeletonize reduces a binary mask to its morphological skeleton by
// repeated erosion, collecting what each opening removes.
func skeletonize(m gocv.Mat) gocv.Mat {
	skeleton := gocv.NewMatWithSize(m.Rows(), m.Cols(), gocv.MatTypeCV8U)
	temp := m.Clone()
	defer temp.Close()

	eroded := gocv.NewMat()
	defer eroded.Close()

	element := crossKernel()
	defer element.Close()

	for gocv.CountNonZero(temp) > 0 {
		gocv.Erode(temp, &eroded, element)

		opened := gocv.NewMat()
		gocv.Dilate(eroded, &opened, element)

		diff := gocv.NewMat()
		gocv.Subtract(temp, opened, &diff)
		opened.Close()

		gocv.BitwiseOr(skeleton, diff, &skeleton)
		diff.Close()

		eroded.CopyTo(&temp)
	}
	return skeleton
}

// watershed grows the connected components of m over base. The top-right
// pixel seeds an extra background marker. The result is on wherever the label
// differs from the label at the origin and is not a basin boundary.
func watershed(base *image.RGBA, m gocv.Mat) gocv.Mat {
	rows, cols := m.Rows(), m.Cols()

	markers := gocv.NewMat()
	defer markers.Close()
	n := gocv.ConnectedComponents(m, &markers)
	markers.SetIntAt(0, cols-1, int32(n))

	bgr := rgbaToBGR(base)
	defer bgr.Close()
	gocv.Watershed(bgr, &markers)

	out := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	background := markers.GetIntAt(0, 0)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			label := markers.GetIntAt(y, x)
			if label != background && label != -1 {
				out.SetUCharAt(y, x, mask.On)
			}
		}
	}
	return out
}

// otsu thresholds the luminance of img with Otsu's method.
func otsu(img *image.RGBA) gocv.Mat {
	gray := grayMat(img)
	defer gray.Close()

	out := gocv.NewMat()
	gocv.Threshold(gray, &out, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	return out
}

// contours draws the outline of every external contour of m, 1 pixel wide.
func contours(m gocv.Mat) gocv.Mat {
	out := gocv.NewMatWithSize(m.Rows(), m.Cols(), gocv.MatTypeCV8U)
	found := gocv.FindContours(m, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	for i := 0; i < found.Size(); i++ {
		gocv.DrawContours(&out, found, i, white, 1)
	}
	return out
}
