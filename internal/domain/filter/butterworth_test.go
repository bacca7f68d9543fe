package filter_test

import (
	"errors"
	"math"
	"testing"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/filter"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func sine(freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return out
}

// peak returns the largest magnitude in the middle half of x.
func peak(x []float64) float64 {
	var m float64
	for _, v := range x[len(x)/4 : 3*len(x)/4] {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func TestButterworthDesign(t *testing.T) {
	convey.Convey("Given filter specs", t, func() {
		convey.Convey("When the default spec is designed", func() {
			f, err := filter.New(filter.DefaultSpec(125))
			convey.So(err, convey.ShouldBeNil)
			convey.So(f.PadLen(), convey.ShouldEqual, 15)
			convey.So(f.MinLength(), convey.ShouldEqual, 16)
			convey.So(f.Spec().Order, convey.ShouldEqual, 4)
		})

		convey.Convey("When an odd order is designed", func() {
			f, err := filter.New(filter.Spec{Cutoff: 10, SampleRate: 125, Order: 3})
			convey.So(err, convey.ShouldBeNil)
			convey.So(f.PadLen(), convey.ShouldEqual, 15)
		})

		convey.Convey("When the cutoff reaches Nyquist", func() {
			_, err := filter.New(filter.Spec{Cutoff: 62.5, SampleRate: 125, Order: 4})
			convey.So(errors.Is(err, model.ErrConfiguration), convey.ShouldBeTrue)
		})

		convey.Convey("When the order is zero", func() {
			_, err := filter.New(filter.Spec{Cutoff: 10, SampleRate: 125})
			convey.So(errors.Is(err, model.ErrConfiguration), convey.ShouldBeTrue)
		})

		convey.Convey("When the sample rate is not positive", func() {
			_, err := filter.New(filter.Spec{Cutoff: 10, Order: 4})
			convey.So(errors.Is(err, model.ErrConfiguration), convey.ShouldBeTrue)
		})
	})
}

func TestButterworthApply(t *testing.T) {
	convey.Convey("Given the default low-pass at 125 Hz", t, func() {
		f, err := filter.New(filter.DefaultSpec(125))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When a constant signal is filtered", func() {
			x := make([]float64, 125)
			for i := range x {
				x[i] = 42
			}
			y, err := f.Apply(x)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it passes through unchanged", func() {
				convey.So(len(y), convey.ShouldEqual, len(x))
				for _, v := range y {
					convey.So(v, convey.ShouldAlmostEqual, 42, 1e-9)
				}
			})
		})

		convey.Convey("When a tone well above the cutoff is filtered", func() {
			y, err := f.Apply(sine(40, 125, 500))
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it is attenuated more than tenfold", func() {
				convey.So(peak(y), convey.ShouldBeLessThan, 0.1)
			})
		})

		convey.Convey("When a tone well below the cutoff is filtered", func() {
			y, err := f.Apply(sine(2, 125, 500))
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it keeps more than 90% of its amplitude", func() {
				convey.So(peak(y), convey.ShouldBeGreaterThan, 0.9)
				convey.So(peak(y), convey.ShouldBeLessThan, 1.05)
			})
		})

		convey.Convey("When a low tone is filtered", func() {
			x := sine(3, 125, 250)
			y, err := f.Apply(x)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the output is not shifted in time", func() {
				for i := 100; i < 150; i++ {
					convey.So(y[i], convey.ShouldAlmostEqual, x[i], 0.05)
				}
			})
		})

		convey.Convey("When the input is filtered twice", func() {
			x := sine(5, 125, 200)
			orig := append([]float64(nil), x...)
			a, _ := f.Apply(x)
			b, _ := f.Apply(x)

			convey.Convey("Then the input is untouched and results agree", func() {
				convey.So(x, convey.ShouldResemble, orig)
				convey.So(a, convey.ShouldResemble, b)
			})
		})

		convey.Convey("When the input is not longer than the padding", func() {
			_, err := f.Apply(make([]float64, 15))
			convey.So(errors.Is(err, model.ErrNumerical), convey.ShouldBeTrue)

			_, err = f.Apply(make([]float64, 16))
			convey.So(err, convey.ShouldBeNil)
		})
	})
}
