package index

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/pkg/e"
)

const (
	snapshotMagic   = "TTIX"
	snapshotVersion = uint16(1)

	// recordHeaderBytes — seq, created_at, длина id и длина метаданных одной записи.
	recordHeaderBytes = 8 + 8 + 2 + 4
)

// MarshalBinary сериализует индекс в снимок:
// magic, версия, размерность, последний seq, количество записей,
// затем для каждой записи seq, created_at (unix nano), id, метаданные (JSON) и вектор (float32 LE).
func (i *Index) MarshalBinary() ([]byte, error) {
	const op = "Index.MarshalBinary"

	i.mu.RLock()
	defer i.mu.RUnlock()

	var buf bytes.Buffer
	buf.WriteString(snapshotMagic)
	w := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	w(snapshotVersion)
	w(uint32(i.dim))
	w(i.lastSeq)
	w(uint32(len(i.entries)))

	for _, en := range i.entries {
		meta, err := json.Marshal(en.rec.Metadata)
		if err != nil {
			return nil, e.Wrap(op, fmt.Errorf("metadata of %s: %w", en.rec.ID, err))
		}

		w(en.rec.Seq)
		w(en.rec.CreatedAt.UnixNano())
		w(uint16(len(en.rec.ID)))
		buf.WriteString(en.rec.ID)
		w(uint32(len(meta)))
		buf.Write(meta)
		for _, x := range en.rec.Vector {
			w(math.Float32bits(x))
		}
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary загружает снимок в пустой индекс; непустой индекс не меняется и даёт ErrInvalidArgument.
// Если размерность индекса уже задана и отличается от размерности снимка, возвращается ErrDimensionMismatch.
// Числа в метаданных восстанавливаются как int64, если они целые, иначе как float64.
func (i *Index) UnmarshalBinary(data []byte) error {
	const op = "Index.UnmarshalBinary"

	r := bytes.NewReader(data)
	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != snapshotMagic {
		return e.Wrap(op, e.Wrap("bad snapshot header", e.ErrInvalidArgument))
	}

	var (
		version uint16
		dim     uint32
		lastSeq uint64
		count   uint32
	)
	if err := readAll(r, &version, &dim, &lastSeq, &count); err != nil {
		return e.Wrap(op, err)
	}
	if version != snapshotVersion {
		return e.Wrap(op, e.Wrap(fmt.Sprintf("unsupported snapshot version %d", version), e.ErrInvalidArgument))
	}

	if cur := i.Dim(); cur != 0 && count > 0 && int(dim) != cur {
		return e.Wrap(op, dimError(int(dim), cur))
	}

	// заголовок не должен обещать больше записей, чем помещается в оставшиеся байты
	minRecord := uint64(recordHeaderBytes) + 4*uint64(dim)
	if uint64(count) > uint64(r.Len())/minRecord {
		return e.Wrap(op, truncated(fmt.Errorf("%d records declared, %d bytes left", count, r.Len())))
	}

	records := make([]domain.EmbeddingRecord, 0, count)
	for n := uint32(0); n < count; n++ {
		rec, err := readRecord(r, int(dim))
		if err != nil {
			return e.Wrap(op, fmt.Errorf("record %d: %w", n, err))
		}
		records = append(records, rec)
	}

	return i.restore(op, records, restoreOpts{onlyEmpty: true, dim: int(dim), lastSeq: lastSeq})
}

func readRecord(r *bytes.Reader, dim int) (domain.EmbeddingRecord, error) {
	var (
		seq     uint64
		created int64
		idLen   uint16
	)
	if err := readAll(r, &seq, &created, &idLen); err != nil {
		return domain.EmbeddingRecord{}, err
	}

	id := make([]byte, idLen)
	if _, err := io.ReadFull(r, id); err != nil {
		return domain.EmbeddingRecord{}, truncated(err)
	}

	var metaLen uint32
	if err := readAll(r, &metaLen); err != nil {
		return domain.EmbeddingRecord{}, err
	}
	if int64(metaLen) > int64(r.Len()) {
		return domain.EmbeddingRecord{}, truncated(io.ErrUnexpectedEOF)
	}
	raw := make([]byte, metaLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return domain.EmbeddingRecord{}, truncated(err)
	}

	meta, err := decodeMetadata(raw)
	if err != nil {
		return domain.EmbeddingRecord{}, e.Wrap("metadata", e.Wrap(err.Error(), e.ErrInvalidArgument))
	}

	if int64(dim)*4 > int64(r.Len()) {
		return domain.EmbeddingRecord{}, truncated(io.ErrUnexpectedEOF)
	}
	vec := make([]float32, dim)
	for j := range vec {
		var bits uint32
		if err := readAll(r, &bits); err != nil {
			return domain.EmbeddingRecord{}, err
		}
		vec[j] = math.Float32frombits(bits)
	}

	return *domain.NewEmbeddingRecord(string(id), seq, vec, meta, time.Unix(0, created).UTC()), nil
}

// decodeMetadata разбирает метаданные, не превращая целые числа в float64.
func decodeMetadata(raw []byte) (domain.Metadata, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var meta domain.Metadata
	if err := dec.Decode(&meta); err != nil {
		return nil, err
	}
	for k, v := range meta {
		meta[k] = fromJSONNumber(v)
	}
	return meta, nil
}

func fromJSONNumber(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, item := range x {
			x[k] = fromJSONNumber(item)
		}
	case []any:
		for n, item := range x {
			x[n] = fromJSONNumber(item)
		}
	}
	return v
}

func readAll(r io.Reader, dst ...any) error {
	for _, d := range dst {
		if err := binary.Read(r, binary.LittleEndian, d); err != nil {
			return truncated(err)
		}
	}
	return nil
}

func truncated(err error) error {
	return e.Wrap(fmt.Sprintf("truncated snapshot (%v)", err), e.ErrInvalidArgument)
}
