package listing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/rsshonjoydas/realtor-api/internal/models"
)

// fakeUploader имитирует блоб-хранилище в памяти
type fakeUploader struct {
	mu        sync.Mutex
	failOn    map[string]bool
	uploaded  []string
	destroyed []string
}

func (f *fakeUploader) UploadImage(_ context.Context, _ uuid.UUID, img ImageFile) (UploadedImage, error) {
	if f.failOn[img.FileName] {
		return UploadedImage{}, errors.New("хранилище недоступно")
	}
	f.mu.Lock()
	f.uploaded = append(f.uploaded, img.FileName)
	f.mu.Unlock()
	return UploadedImage{
		URL:      "https://cdn.example/" + img.FileName,
		PublicID: "pub-" + img.FileName,
		FileName: img.FileName,
	}, nil
}

func (f *fakeUploader) DestroyImage(_ context.Context, publicID string) error {
	f.mu.Lock()
	f.destroyed = append(f.destroyed, publicID)
	f.mu.Unlock()
	return nil
}

// fakeStore имитирует хранилище объявлений
type fakeStore struct {
	owners    map[uuid.UUID]uuid.UUID
	created   []*models.Listing
	updated   []*models.Listing
	deleted   []uuid.UUID
	blobIDs   []string
	createErr error
}

func (f *fakeStore) OwnerOf(_ context.Context, listingID uuid.UUID) (uuid.UUID, error) {
	owner, ok := f.owners[listingID]
	if !ok {
		return uuid.Nil, &FlowError{Kind: KindNotFound, Message: "Объявление не найдено"}
	}
	return owner, nil
}

func (f *fakeStore) Create(_ context.Context, l *models.Listing) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, l)
	return nil
}

func (f *fakeStore) Update(_ context.Context, l *models.Listing, _ bool) error {
	f.updated = append(f.updated, l)
	return nil
}

func (f *fakeStore) Delete(_ context.Context, listingID uuid.UUID) ([]string, error) {
	f.deleted = append(f.deleted, listingID)
	return f.blobIDs, nil
}

func validDraft() *Draft {
	return &Draft{
		Type:         models.TypeRent,
		Name:         "Квартира у парка",
		Bedrooms:     2,
		Bathrooms:    1,
		Address:      "ул. Садовая, 5",
		Description:  "Светлая квартира рядом с парком",
		RegularPrice: 1200,
	}
}

func draftImages(names ...string) []ImageFile {
	var images []ImageFile
	for _, name := range names {
		images = append(images, ImageFile{FileName: name, Reader: strings.NewReader("img")})
	}
	return images
}

func flowKind(t *testing.T, err error) ErrorKind {
	t.Helper()
	var fe *FlowError
	if !errors.As(err, &fe) {
		t.Fatalf("ожидалась FlowError, получено %v", err)
	}
	return fe.Kind
}

func TestSubmitRejectsDiscountNotBelowRegular(t *testing.T) {
	up := &fakeUploader{}
	st := &fakeStore{}
	w := NewWorkflow(up, st)

	d := validDraft()
	d.Offer = true
	d.RegularPrice = 1000
	d.DiscountedPrice = 1000 // равно обычной цене — уже недопустимо

	_, err := w.Submit(context.Background(), uuid.New(), d, nil)
	if flowKind(t, err) != KindValidation {
		t.Fatalf("ожидалась ошибка валидации, получено %v", err)
	}
	if len(up.uploaded) != 0 {
		t.Fatalf("загрузки не должны начинаться при ошибке валидации")
	}
	if len(st.created) != 0 {
		t.Fatalf("запись в хранилище не должна выполняться при ошибке валидации")
	}
}

func TestSubmitRejectsTooManyImages(t *testing.T) {
	up := &fakeUploader{}
	st := &fakeStore{}
	w := NewWorkflow(up, st)

	d := validDraft()
	d.Images = draftImages("1", "2", "3", "4", "5", "6", "7")

	_, err := w.Submit(context.Background(), uuid.New(), d, nil)
	if flowKind(t, err) != KindValidation {
		t.Fatalf("ожидалась ошибка валидации, получено %v", err)
	}
	if len(up.uploaded) != 0 {
		t.Fatalf("ни одна загрузка не должна начаться до проверки лимита")
	}
}

func TestSubmitUploadFailureAbortsPersist(t *testing.T) {
	up := &fakeUploader{failOn: map[string]bool{"b.jpg": true}}
	st := &fakeStore{}
	w := NewWorkflow(up, st)

	d := validDraft()
	d.Images = draftImages("a.jpg", "b.jpg", "c.jpg")

	_, err := w.Submit(context.Background(), uuid.New(), d, nil)
	if flowKind(t, err) != KindUpload {
		t.Fatalf("ожидалась ошибка загрузки, получено %v", err)
	}
	if len(st.created) != 0 || len(st.updated) != 0 {
		t.Fatalf("документ не должен записываться при неудачной загрузке")
	}

	// Успевшие загрузиться блобы удалены
	if len(up.destroyed) != len(up.uploaded) {
		t.Fatalf("удалено %d блобов, загружено %d", len(up.destroyed), len(up.uploaded))
	}
}

func TestSubmitPersistFailureCleansUploads(t *testing.T) {
	up := &fakeUploader{}
	st := &fakeStore{createErr: errors.New("база недоступна")}
	w := NewWorkflow(up, st)

	d := validDraft()
	d.Images = draftImages("a.jpg", "b.jpg")

	_, err := w.Submit(context.Background(), uuid.New(), d, nil)
	if flowKind(t, err) != KindPersist {
		t.Fatalf("ожидалась ошибка записи, получено %v", err)
	}
	if len(up.destroyed) != 2 {
		t.Fatalf("после неудачной записи должны удалиться оба блоба, удалено %d", len(up.destroyed))
	}
}

func TestSubmitPreservesImageOrder(t *testing.T) {
	up := &fakeUploader{}
	st := &fakeStore{}
	w := NewWorkflow(up, st)

	d := validDraft()
	d.Images = draftImages("a.jpg", "b.jpg", "c.jpg")

	userID := uuid.New()
	id, err := w.Submit(context.Background(), userID, d, nil)
	if err != nil {
		t.Fatalf("Submit() вернул ошибку: %v", err)
	}
	if id == uuid.Nil {
		t.Fatalf("Submit() не вернул ID объявления")
	}
	if len(st.created) != 1 {
		t.Fatalf("ожидалась одна запись, получено %d", len(st.created))
	}

	l := st.created[0]
	if l.UserID != userID {
		t.Fatalf("владелец записи %s, ожидался %s", l.UserID, userID)
	}

	want := []string{
		"https://cdn.example/a.jpg",
		"https://cdn.example/b.jpg",
		"https://cdn.example/c.jpg",
	}
	if len(l.Images) != len(want) {
		t.Fatalf("ожидалось %d изображений, получено %d", len(want), len(l.Images))
	}
	for i, img := range l.Images {
		if img.URL != want[i] {
			t.Errorf("изображение %d: URL %s, ожидался %s", i, img.URL, want[i])
		}
		if img.Position != i {
			t.Errorf("изображение %d: позиция %d", i, img.Position)
		}
		if img.IsMain != (i == 0) {
			t.Errorf("изображение %d: is_main = %v", i, img.IsMain)
		}
	}
	if l.CoverImage() != want[0] {
		t.Errorf("обложка %s, ожидалась %s", l.CoverImage(), want[0])
	}
}

func TestSubmitUpdateRejectsForeignListing(t *testing.T) {
	up := &fakeUploader{}
	listingID := uuid.New()
	st := &fakeStore{owners: map[uuid.UUID]uuid.UUID{listingID: uuid.New()}}
	w := NewWorkflow(up, st)

	d := validDraft()
	d.Images = draftImages("a.jpg")

	_, err := w.Submit(context.Background(), uuid.New(), d, &listingID)
	if flowKind(t, err) != KindPermission {
		t.Fatalf("ожидалась ошибка доступа, получено %v", err)
	}
	if len(up.uploaded) != 0 {
		t.Fatalf("загрузки не должны начинаться для чужого объявления")
	}
	if len(st.updated) != 0 {
		t.Fatalf("чужое объявление не должно обновляться")
	}
}

func TestSubmitUpdateMissingListing(t *testing.T) {
	st := &fakeStore{owners: map[uuid.UUID]uuid.UUID{}}
	w := NewWorkflow(&fakeUploader{}, st)

	missing := uuid.New()
	_, err := w.Submit(context.Background(), uuid.New(), validDraft(), &missing)
	if flowKind(t, err) != KindNotFound {
		t.Fatalf("ожидалась ошибка о пропавшем объявлении, получено %v", err)
	}
}

func TestSubmitAcceptsDirectUploadedImages(t *testing.T) {
	up := &fakeUploader{}
	st := &fakeStore{}
	w := NewWorkflow(up, st)

	// Клиент загрузил блобы напрямую и прислал только ссылки
	d := validDraft()
	d.Uploaded = []UploadedImage{
		{URL: "https://cdn.example/direct-a.jpg", PublicID: "pub-direct-a"},
		{URL: "https://cdn.example/direct-b.jpg", PublicID: "pub-direct-b"},
	}

	_, err := w.Submit(context.Background(), uuid.New(), d, nil)
	if err != nil {
		t.Fatalf("Submit() вернул ошибку: %v", err)
	}
	if len(up.uploaded) != 0 {
		t.Fatalf("готовые ссылки не должны загружаться повторно")
	}
	if len(st.created) != 1 {
		t.Fatalf("ожидалась одна запись, получено %d", len(st.created))
	}

	images := st.created[0].Images
	if len(images) != 2 {
		t.Fatalf("ожидалось 2 изображения, получено %d", len(images))
	}
	if images[0].PublicID != "pub-direct-a" || !images[0].IsMain {
		t.Fatalf("первая ссылка должна стать обложкой, получено %+v", images[0])
	}
}

func TestSubmitCountsDirectUploadsAgainstLimit(t *testing.T) {
	up := &fakeUploader{}
	st := &fakeStore{}
	w := NewWorkflow(up, st)

	// 4 готовых ссылки + 3 файла = 7, на одно больше лимита
	d := validDraft()
	for i := 0; i < 4; i++ {
		d.Uploaded = append(d.Uploaded, UploadedImage{PublicID: "pub-direct"})
	}
	d.Images = draftImages("a.jpg", "b.jpg", "c.jpg")

	_, err := w.Submit(context.Background(), uuid.New(), d, nil)
	if flowKind(t, err) != KindValidation {
		t.Fatalf("ожидалась ошибка валидации, получено %v", err)
	}
	if len(up.uploaded) != 0 {
		t.Fatalf("ни одна загрузка не должна начаться до проверки лимита")
	}
}

func TestDeleteIssuesSingleStoreDeletion(t *testing.T) {
	listingID := uuid.New()
	userID := uuid.New()
	up := &fakeUploader{}
	st := &fakeStore{
		owners:  map[uuid.UUID]uuid.UUID{listingID: userID},
		blobIDs: []string{"pub-a", "pub-b"},
	}
	w := NewWorkflow(up, st)

	if err := w.Delete(context.Background(), userID, listingID); err != nil {
		t.Fatalf("Delete() вернул ошибку: %v", err)
	}
	if len(st.deleted) != 1 || st.deleted[0] != listingID {
		t.Fatalf("ожидалось ровно одно удаление %s, получено %v", listingID, st.deleted)
	}

	// Блобы объявления вычищены после удаления записи
	if len(up.destroyed) != 2 {
		t.Fatalf("ожидалась чистка 2 блобов, удалено %d", len(up.destroyed))
	}
}

func TestDeleteRejectsForeignListing(t *testing.T) {
	listingID := uuid.New()
	up := &fakeUploader{}
	st := &fakeStore{owners: map[uuid.UUID]uuid.UUID{listingID: uuid.New()}}
	w := NewWorkflow(up, st)

	err := w.Delete(context.Background(), uuid.New(), listingID)
	if flowKind(t, err) != KindPermission {
		t.Fatalf("ожидалась ошибка доступа, получено %v", err)
	}
	if len(st.deleted) != 0 {
		t.Fatalf("чужое объявление не должно удаляться")
	}
	if len(up.destroyed) != 0 {
		t.Fatalf("блобы чужого объявления не должны трогаться")
	}
}

func TestDeleteMissingListing(t *testing.T) {
	st := &fakeStore{owners: map[uuid.UUID]uuid.UUID{}}
	w := NewWorkflow(&fakeUploader{}, st)

	err := w.Delete(context.Background(), uuid.New(), uuid.New())
	if flowKind(t, err) != KindNotFound {
		t.Fatalf("ожидалась ошибка о пропавшем объявлении, получено %v", err)
	}
	if len(st.deleted) != 0 {
		t.Fatalf("несуществующее объявление не должно удаляться")
	}
}

func TestSubmitUpdateKeepsImagesWhenNoneUploaded(t *testing.T) {
	listingID := uuid.New()
	userID := uuid.New()
	st := &fakeStore{owners: map[uuid.UUID]uuid.UUID{listingID: userID}}
	w := NewWorkflow(&fakeUploader{}, st)

	// Черновик без новых изображений: старые остаются на месте
	id, err := w.Submit(context.Background(), userID, validDraft(), &listingID)
	if err != nil {
		t.Fatalf("Submit() вернул ошибку: %v", err)
	}
	if id != listingID {
		t.Fatalf("ожидался ID %s, получен %s", listingID, id)
	}
	if len(st.updated) != 1 {
		t.Fatalf("ожидалось одно обновление, получено %d", len(st.updated))
	}
}
