package netc

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/netcio/netc/internal/testutil"
)

func sampleCorpus() [][]byte {
	rng := testutil.NewSplitMix64(42)
	var packets [][]byte
	for i := 0; i < 64; i++ {
		n := 16 + int(rng.Next()%200)
		packets = append(packets, rng.Bytes(n))
	}
	// A skewed, highly-repetitive packet family too, so the trained
	// tables have real structure to exploit instead of pure noise.
	for i := 0; i < 64; i++ {
		packets = append(packets, make([]byte, 64))
	}
	return packets
}

func TestTrainRejectsReservedModelID(t *testing.T) {
	if _, err := Train(sampleCorpus(), 0, TrainOptions{}); err == nil {
		t.Fatal("expected error for model_id 0")
	}
	if _, err := Train(sampleCorpus(), 255, TrainOptions{}); err == nil {
		t.Fatal("expected error for model_id 255")
	}
}

func TestDictionarySaveLoadRoundTrip(t *testing.T) {
	dict, err := Train(sampleCorpus(), 9, TrainOptions{DeriveLZP: true})
	if err != nil {
		t.Fatal(err)
	}
	blob := dict.Save()
	if len(blob) != dictFixedSizeWithLZP {
		t.Fatalf("blob size = %d, want %d", len(blob), dictFixedSizeWithLZP)
	}

	loaded, err := LoadDictionary(blob)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ModelID != 9 || !loaded.HasLZP {
		t.Fatalf("loaded = %+v", loaded)
	}
	if diff := cmp.Diff(dict.Unigram, loaded.Unigram); diff != "" {
		t.Fatalf("unigram frequency tables did not round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(dict.Bigram, loaded.Bigram); diff != "" {
		t.Fatalf("bigram frequency tables did not round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(dict.Predictor, loaded.Predictor); diff != "" {
		t.Fatalf("LZP predictor did not round trip (-want +got):\n%s", diff)
	}
}

func TestDictionaryNoLZPFixedSize(t *testing.T) {
	dict, err := Train(sampleCorpus(), 3, TrainOptions{})
	if err != nil {
		t.Fatal(err)
	}
	blob := dict.Save()
	if len(blob) != dictFixedSizeNoLZP {
		t.Fatalf("blob size = %d, want %d", len(blob), dictFixedSizeNoLZP)
	}
}

func TestLoadDictionaryRejectsBadMagic(t *testing.T) {
	dict, _ := Train(sampleCorpus(), 3, TrainOptions{})
	blob := dict.Save()
	blob[0] ^= 0xFF
	if _, err := LoadDictionary(blob); KindOf(err) != ErrDictInvalid {
		t.Fatalf("err = %v, want DictInvalid", err)
	}
}

func TestLoadDictionaryRejectsBadCRC(t *testing.T) {
	dict, _ := Train(sampleCorpus(), 3, TrainOptions{})
	blob := dict.Save()
	blob[len(blob)-1] ^= 0xFF
	if _, err := LoadDictionary(blob); KindOf(err) != ErrDictInvalid {
		t.Fatalf("err = %v, want DictInvalid", err)
	}
}

func TestLoadDictionaryRejectsBadSize(t *testing.T) {
	if _, err := LoadDictionary(make([]byte, 10)); KindOf(err) != ErrDictInvalid {
		t.Fatal("expected DictInvalid for a too-small blob")
	}
}

func TestLoadDictionaryRejectsBadVersion(t *testing.T) {
	dict, _ := Train(sampleCorpus(), 3, TrainOptions{})
	blob := dict.Save()
	blob[4] = 9
	if _, err := LoadDictionary(blob); KindOf(err) != ErrDictInvalid {
		t.Fatal("expected DictInvalid for an unsupported version")
	}
}
