package storage

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path"

	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/types"
)

const (
	headerSizeBytes = 4 // the number of arms

	armSizeBytes = 8 + // the count
		8 // the sum
)

type FileStorage struct {
	stateFile *os.File

	// The directory where the snapshot file is stored.
	directory string
}

func NewFileStorage(directory string) (*FileStorage, error) {
	if err := os.MkdirAll(directory, 0750); err != nil {
		return nil, fmt.Errorf("creating storage directory: directory=%s %w", directory, err)
	}

	stateFilePath := path.Join(directory, "bandit.state")
	stateFile, err := os.OpenFile(stateFilePath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening state file: path=%s %w", stateFilePath, err)
	}

	return &FileStorage{stateFile: stateFile, directory: directory}, nil
}

func (storage *FileStorage) Directory() string {
	return storage.directory
}

func (storage *FileStorage) Close() error {
	return storage.stateFile.Close()
}

func (storage *FileStorage) Load() ([]types.ArmStats, error) {
	fileInfo, err := storage.stateFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("executing file stat: %w", err)
	}

	fileSize := fileInfo.Size()
	if fileSize == 0 {
		return nil, nil
	}

	buffer := make([]byte, fileSize)
	if _, err := storage.stateFile.ReadAt(buffer, 0); err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	return decode(buffer)
}

func (storage *FileStorage) Persist(arms []types.ArmStats) error {
	buffer := encode(arms)

	if _, err := storage.stateFile.WriteAt(buffer, 0); err != nil {
		return fmt.Errorf("writing state to file: %w", err)
	}

	// A previous snapshot may have had more arms.
	if err := storage.stateFile.Truncate(int64(len(buffer))); err != nil {
		return fmt.Errorf("truncating state file: size=%d %w", len(buffer), err)
	}

	if err := storage.stateFile.Sync(); err != nil {
		return fmt.Errorf("syncing data to disk: %w", err)
	}

	return nil
}

func encode(arms []types.ArmStats) []byte {
	buffer := make([]byte, 0, headerSizeBytes+armSizeBytes*len(arms))

	buffer = binary.LittleEndian.AppendUint32(buffer, uint32(len(arms)))

	for _, arm := range arms {
		buffer = binary.LittleEndian.AppendUint64(buffer, uint64(arm.Count))
		buffer = binary.LittleEndian.AppendUint64(buffer, math.Float64bits(arm.Sum))
	}

	return buffer
}

func decode(buffer []byte) ([]types.ArmStats, error) {
	if len(buffer) < headerSizeBytes {
		return nil, fmt.Errorf("snapshot too small: size=%d %w", len(buffer), ErrCorruptSnapshot)
	}

	numArms := int(binary.LittleEndian.Uint32(buffer))

	expectedSize := headerSizeBytes + numArms*armSizeBytes
	if len(buffer) != expectedSize {
		return nil, fmt.Errorf("unexpected snapshot size: arms=%d size=%d expected=%d %w", numArms, len(buffer), expectedSize, ErrCorruptSnapshot)
	}

	arms := make([]types.ArmStats, 0, numArms)

	for i := 0; i < numArms; i++ {
		armStartsAt := headerSizeBytes + i*armSizeBytes

		count := binary.LittleEndian.Uint64(buffer[armStartsAt:])
		sum := binary.LittleEndian.Uint64(buffer[armStartsAt+8:])

		arms = append(arms, types.ArmStats{Count: int64(count), Sum: math.Float64frombits(sum)})
	}

	return arms, nil
}
