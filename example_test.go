package knnlive_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/knnlive"
	"github.com/hupe1980/knnlive/model"
	"github.com/hupe1980/knnlive/testutil"
)

func Example() {
	monitor, err := knnlive.New(2)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	// Three close points and a stray one.
	if err := monitor.Insert(ctx, testutil.Points1D(1, 0, 1, 2, 10)); err != nil {
		log.Fatal(err)
	}

	_, score, _ := monitor.Score(4)
	fmt.Printf("population: %d\n", monitor.Len())
	fmt.Printf("outlier score: %.2f\n", score)

	// Removing the stray point reshapes the remaining scores in place.
	if err := monitor.Delete(ctx, []model.ObjectID{4}); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("population: %d\n", monitor.Len())

	// Output:
	// population: 4
	// outlier score: 4.96
	// population: 3
}
