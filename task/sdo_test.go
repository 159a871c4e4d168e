package task

import (
	"testing"

	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/coe"
	"github.com/ecat-io/ethercat/mailbox"
	"github.com/ecat-io/ethercat/register"
)

func testMailboxAddrs() MailboxAddrs {
	return MailboxAddrs{
		SmOut: register.SyncManagerAddress(0), MbxOut: 0x1000,
		SmIn: register.SyncManagerAddress(1), MbxIn: 0x1100,
	}
}

func driveMailboxWrite(t *testing.T, w *MailboxWrite) {
	t.Helper()
	// CheckMailboxEmpty: SM status, mailbox not full.
	_, n, _, ok := w.NextPDU()
	if !ok {
		t.Fatal("expected check-empty PDU")
	}
	var sm register.SyncManagerControl
	buf := make([]byte, n)
	copy(buf, sm[:])
	w.ReceiveAndProcess(buf, 1, 0)

	// Send.
	_, _, _, ok = w.NextPDU()
	if !ok {
		t.Fatal("expected send PDU")
	}
	w.ReceiveAndProcess(nil, 1, 10)
	if !w.IsFinished() || w.Err() != nil {
		t.Fatalf("write should finish cleanly, err=%v", w.Err())
	}
}

func TestSdoUploadExpedited(t *testing.T) {
	target := ethercat.SingleSlave(0x1001)
	var count uint8 = 1
	respBuf := make([]byte, 64)
	up := NewSdoUpload(target, testMailboxAddrs(), 0x1018, 1, &count, respBuf)

	driveMailboxWrite(t, up.write)
	up.phase = sdoPhaseRead

	// Read: CheckMailboxFull -> full.
	_, n, _, ok := up.read.NextPDU()
	if !ok {
		t.Fatal("expected check-full PDU")
	}
	var sm register.SyncManagerControl
	smbuf := make([]byte, n)
	copy(smbuf, sm[:])
	smbuf[5] = register.SmStatusMailboxFull
	up.ReceiveAndProcess(smbuf, 1, 20)

	// Read: fetch response frame.
	_, n, _, ok = up.read.NextPDU()
	if !ok {
		t.Fatal("expected mailbox read PDU")
	}
	resp := make([]byte, n)
	hdr, _ := mailbox.NewHeader(resp)
	hdr.SetLength(coe.HeaderSize + coe.SdoHeaderSize + 2)
	hdr.SetMailboxType(mailbox.TypeCoE)
	ch, _ := coe.NewHeader(resp[mailbox.HeaderSize:])
	ch.SetService(coe.ServiceSdoResponse)
	sh, _ := coe.NewSdoHeader(resp[mailbox.HeaderSize+coe.HeaderSize:])
	sh.SetCommandSpecifier(coe.SdoUpload)
	sh.SetTransferType(true)
	sh.SetDataSetSize(coe.DataSetSizeForLen(2))
	copy(resp[mailbox.HeaderSize+coe.HeaderSize+coe.SdoHeaderSize:], []byte{0x34, 0x12})
	up.ReceiveAndProcess(resp, 1, 30)

	if !up.IsFinished() {
		t.Fatal("expected upload to finish")
	}
	if up.Err() != nil {
		t.Fatalf("unexpected error: %v", up.Err())
	}
	if len(up.Data()) != 2 || up.Data()[0] != 0x34 || up.Data()[1] != 0x12 {
		t.Fatalf("data = %x", up.Data())
	}
}

func TestSdoDownloadSuccess(t *testing.T) {
	target := ethercat.SingleSlave(0x1001)
	var count uint8 = 1
	respBuf := make([]byte, 64)
	dl := NewSdoDownload(target, testMailboxAddrs(), 0x1018, 1, []byte{1, 2}, &count, respBuf)

	driveMailboxWrite(t, dl.write)
	dl.phase = sdoPhaseRead

	_, n, _, _ := dl.read.NextPDU()
	smbuf := make([]byte, n)
	smbuf[5] = register.SmStatusMailboxFull
	dl.ReceiveAndProcess(smbuf, 1, 20)

	_, n, _, _ = dl.read.NextPDU()
	resp := make([]byte, n)
	hdr, _ := mailbox.NewHeader(resp)
	hdr.SetLength(coe.HeaderSize + coe.SdoHeaderSize)
	hdr.SetMailboxType(mailbox.TypeCoE)
	ch, _ := coe.NewHeader(resp[mailbox.HeaderSize:])
	ch.SetService(coe.ServiceSdoResponse)
	sh, _ := coe.NewSdoHeader(resp[mailbox.HeaderSize+coe.HeaderSize:])
	sh.SetCommandSpecifier(coe.SdoDownloadResponse)
	sh.SetIndex(0x1018)
	sh.SetSubIndex(1)
	dl.ReceiveAndProcess(resp, 1, 30)

	if !dl.IsFinished() {
		t.Fatal("expected download to finish")
	}
	if dl.Err() != nil {
		t.Fatalf("unexpected error: %v", dl.Err())
	}
}

func TestSdoDownloadAbort(t *testing.T) {
	target := ethercat.SingleSlave(0x1001)
	var count uint8 = 1
	respBuf := make([]byte, 64)
	dl := NewSdoDownload(target, testMailboxAddrs(), 0x1018, 1, []byte{1, 2}, &count, respBuf)

	driveMailboxWrite(t, dl.write)
	dl.phase = sdoPhaseRead

	_, n, _, _ := dl.read.NextPDU()
	smbuf := make([]byte, n)
	smbuf[5] = register.SmStatusMailboxFull
	dl.ReceiveAndProcess(smbuf, 1, 20)

	_, n, _, _ = dl.read.NextPDU()
	resp := make([]byte, n)
	hdr, _ := mailbox.NewHeader(resp)
	hdr.SetMailboxType(mailbox.TypeCoE)
	sh, _ := coe.NewSdoHeader(resp[mailbox.HeaderSize+coe.HeaderSize:])
	sh.SetCommandSpecifier(coe.SdoAbort)
	payload := resp[mailbox.HeaderSize+coe.HeaderSize+coe.SdoHeaderSize:]
	payload[0] = 0x02
	payload[1] = 0x00
	payload[2] = 0x01
	payload[3] = 0x06
	dl.ReceiveAndProcess(resp, 1, 30)

	if !dl.IsFinished() {
		t.Fatal("expected download to finish")
	}
	ace, ok := dl.Err().(*ethercat.AbortCodeError)
	if !ok {
		t.Fatalf("expected AbortCodeError, got %v", dl.Err())
	}
	if ace.Code != ethercat.AbortCodeReadOnly {
		t.Fatalf("code = %#x", ace.Code)
	}
}
