package imagevault_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/imagevault"
	"github.com/hupe1980/imagevault/blobstore"
	"github.com/hupe1980/imagevault/codec"
	"github.com/hupe1980/imagevault/model"
)

// Example_saveAndSearch demonstrates the save/search round trip.
func Example_saveAndSearch() {
	ctx := context.Background()

	vault := imagevault.New(blobstore.NewMemoryStore())

	_, err := vault.SaveAnalysis(ctx, model.AnalysisRecord{
		ImageHash:    "c3ab8ff1",
		Filename:     "apple.jpg",
		ImageSummary: "a red apple on a wooden table",
		Embedding:    []float64{0.12, 0.91, 0.33},
	})
	if err != nil {
		log.Fatal(err)
	}

	results, err := vault.SearchAnalyses(ctx, "apple")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(len(results), results[0].Filename)
	// Output: 1 apple.jpg
}

// Example_relatedAnalyses demonstrates related-analysis stamping on save.
func Example_relatedAnalyses() {
	ctx := context.Background()

	vault := imagevault.New(blobstore.NewMemoryStore())

	_, err := vault.SaveAnalysis(ctx, model.AnalysisRecord{
		ImageHash:    "aaaa",
		ImageSummary: "a red apple",
		Embedding:    []float64{1, 0, 0},
	})
	if err != nil {
		log.Fatal(err)
	}

	second, err := vault.SaveAnalysis(ctx, model.AnalysisRecord{
		ImageHash:    "bbbb",
		ImageSummary: "a green apple",
		Embedding:    []float64{0.9, 0.1, 0},
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(len(second.Related), second.Related[0].Summary)
	// Output: 1 a red apple
}

// Example_compressedStore demonstrates a zstd-compressed on-disk vault.
func Example_compressedStore() {
	vault := imagevault.New(
		blobstore.NewLocalStore("./data"),
		imagevault.WithCodec(codec.Zstd{}),
		imagevault.WithRecordBlob("analyses.json.zst"),
		imagevault.WithVectorBlob("vectors.json.zst"),
	)

	_ = vault

	fmt.Println("vault created")
	// Output: vault created
}
